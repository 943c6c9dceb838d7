package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: pool\n"), 0o644))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("mode: streaming\n"), 0o644))

	select {
	case cfg := <-reloaded:
		require.Equal(t, "streaming", cfg.Mode)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within timeout")
	}
}

func TestWatcher_KeepsPreviousOnBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: pool\n"), 0o644))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	defer w.Close()

	// Invalid mode fails validation; the callback must not fire.
	require.NoError(t, os.WriteFile(path, []byte("mode: bogus\n"), 0o644))

	select {
	case cfg := <-reloaded:
		t.Fatalf("callback fired for invalid config: %+v", cfg)
	case <-time.After(1 * time.Second):
	}
}
