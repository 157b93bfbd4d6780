package profilestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptbroker/promptbroker/internal/adapters/outbound/profilestore"
	"github.com/promptbroker/promptbroker/internal/domain"
)

func TestNewWatcher_RequiresDirectory(t *testing.T) {
	store := newStore(t, "")
	_, err := profilestore.NewWatcher(store, "", zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

func TestWatcher_ReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "alpha.md", "alpha_profile", "")

	store := newStore(t, dir)
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.Catalog().Len())

	watcher, err := profilestore.NewWatcher(store, dir, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx)
	}()

	writeProfile(t, dir, "beta.md", "beta_profile", "")

	require.Eventually(t, func() bool {
		return store.Catalog().Len() == 2
	}, 5*time.Second, 50*time.Millisecond, "watcher should reload after the debounce window")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestWatcher_CoalescesEventBursts(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "alpha.md", "alpha_profile", "")

	store := newStore(t, dir)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	watcher, err := profilestore.NewWatcher(store, dir, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx)
	}()

	// A burst of writes inside one debounce window exercises the timer
	// reset path; every file must still be picked up by the coalesced
	// reload.
	for _, name := range []string{"beta.md", "gamma.md", "delta.md"} {
		writeProfile(t, dir, name, name[:len(name)-3]+"_profile", "")
		time.Sleep(50 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return store.Catalog().Len() == 4
	}, 5*time.Second, 50*time.Millisecond, "all burst writes should land in one or more reloads")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
