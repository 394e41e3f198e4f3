package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxRestoresEveryTableOnError(t *testing.T) {
	store := NewStore()
	seats := NewTable[string, int](store)
	names := NewTable[string, string](store)

	require.NoError(t, store.Write(context.Background(), func() error {
		seats.Put("r1", 4)
		return nil
	}))

	boom := errors.New("boom")
	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		seats.Put("r1", 1)
		names.Put("b1", "alice")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_ = store.Read(context.Background(), func() error {
		v, _ := seats.Get("r1")
		assert.Equal(t, 4, v)
		assert.Equal(t, 0, names.Len())
		return nil
	})
}

func TestWithinTxKeepsChangesOnSuccessAndAllowsNesting(t *testing.T) {
	store := NewStore()
	seats := NewTable[string, int](store)

	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		return store.Write(ctx, func() error {
			seats.Put("r1", 2)
			return store.WithinTx(ctx, func(context.Context) error {
				seats.Put("r2", 3)
				return nil
			})
		})
	})
	require.NoError(t, err)

	_ = store.Read(context.Background(), func() error {
		assert.Equal(t, 2, seats.Len())
		return nil
	})
}

func TestWithinTxSerializesWriters(t *testing.T) {
	store := NewStore()
	counter := NewTable[string, int](store)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithinTx(context.Background(), func(ctx context.Context) error {
				v, _ := counter.Get("n")
				counter.Put("n", v+1)
				return nil
			})
		}()
	}
	wg.Wait()

	v, _ := counter.Get("n")
	assert.Equal(t, 50, v)
}

func TestFilterSortsResults(t *testing.T) {
	store := NewStore()
	table := NewTable[string, int](store)
	for k, v := range map[string]int{"a": 3, "b": 1, "c": 2, "d": 8} {
		table.Put(k, v)
	}

	got := table.Filter(func(v int) bool { return v < 5 }, func(a, b int) bool { return a < b })
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, table.Delete("a"))
	assert.False(t, table.Delete("a"))
}
