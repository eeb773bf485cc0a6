package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedgers(t *testing.T) map[string]Ledger {
	t.Helper()

	db, err := OpenLevelDB(filepath.Join(t.TempDir(), "ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Ledger{
		"memory":  NewMemory(),
		"leveldb": db,
	}
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	key := []byte{0x04, 0x01, 0x02}
	other := []byte{0x04, 0x03, 0x04}

	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := l.Last(ctx, key)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, l.Advance(ctx, key, 1348))
			require.NoError(t, l.Advance(ctx, key, 1349))

			err = l.Advance(ctx, key, 1349)
			require.ErrorIs(t, err, ErrReplay)
			require.Contains(t, err.Error(), "last seen 1349")

			require.ErrorIs(t, l.Advance(ctx, key, 1), ErrReplay)
			require.NoError(t, l.Advance(ctx, key, 1353))

			last, ok, err := l.Last(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, uint32(1353), last)

			// keys are independent
			require.NoError(t, l.Advance(ctx, other, 0))
			last, _, err = l.Last(ctx, other)
			require.NoError(t, err)
			require.Equal(t, uint32(0), last)
		})
	}
}

func TestAdvanceConcurrent(t *testing.T) {
	ctx := context.Background()
	key := []byte("tag")

	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			const n = 32

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				accepted int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if l.Advance(ctx, key, 7) == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, accepted)
		})
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, l := range openLedgers(t) {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, l.Advance(ctx, []byte("k"), 1), context.Canceled)
			_, _, err := l.Last(ctx, []byte("k"))
			require.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestLevelDBSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger")
	key := []byte{0x04, 0xaa}

	db, err := OpenLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Advance(ctx, key, 42))
	require.NoError(t, db.Close())

	db, err = OpenLevelDB(path)
	require.NoError(t, err)
	defer db.Close()

	last, ok, err := db.Last(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(42), last)
	require.ErrorIs(t, db.Advance(ctx, key, 42), ErrReplay)
}

func TestLevelDBLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")

	db, err := OpenLevelDB(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = OpenLevelDB(path)
	require.Error(t, err)
}
