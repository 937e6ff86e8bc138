// Package ledger keeps the bounded, newest-first history of reversible
// organizer actions.
//
// Actions are a closed set: Move and CreateFolder. The ledger converts them to
// and from store entries and applies every change through store.Update, so a
// history append can share a save with the stats that accompany it.
package ledger
