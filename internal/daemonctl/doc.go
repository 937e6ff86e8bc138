// Package daemonctl starts, stops, and inspects the twinkle daemon process
// from the CLI side: detached launch, socket polling, signal-then-kill stop,
// and an offline status snapshot read straight from the persisted record.
package daemonctl
