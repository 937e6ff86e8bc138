package testsupport

import (
	"context"
	"testing"

	"twinkle/internal/config"
	"twinkle/internal/logging"
	"twinkle/internal/store"
)

// MustOpenStore opens the configured store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.OpenFromConfig(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("store.OpenFromConfig: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
