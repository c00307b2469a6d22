package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itestutil "github.com/leapstack-labs/olistdw/internal/testutil"
)

func TestWatchSeeds(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchSeeds(ctx, dir, itestutil.NewTestLogger(t), 20*time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return errors.New("runs keep going after a failure")
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond,
		"fn runs once before any change")

	itestutil.WriteFile(t, dir, "notes.txt", "ignored")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "non-CSV changes are ignored")

	itestutil.WriteFile(t, dir, "olist_orders.csv", "order_id\n")
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond,
		"a CSV change triggers one more run")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchSeeds_MissingDir(t *testing.T) {
	err := watchSeeds(context.Background(), "/nonexistent/olistdw-seeds", itestutil.NewTestLogger(t), time.Millisecond,
		func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
