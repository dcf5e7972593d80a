package models

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockRecord_Invalid(t *testing.T) {
	cases := map[string]struct {
		owner  uuid.UUID
		symbol string
		qty    int64
	}{
		"nil owner":    {uuid.Nil, "GOLD", 1},
		"empty symbol": {uuid.New(), "  ", 1},
		"negative":     {uuid.New(), "GOLD", -1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewStockRecord(tc.owner, tc.symbol, tc.qty)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestStockRecord_AddRemove(t *testing.T) {
	r, err := NewStockRecord(uuid.New(), "GOLD", 10)
	require.NoError(t, err)

	require.NoError(t, r.AddStock(5))
	assert.Equal(t, int64(15), r.Quantity())

	ok, err := r.RemoveStock(16)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(15), r.Quantity())

	ok, err = r.RemoveStock(15)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), r.Quantity())

	_, err = r.RemoveStock(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStockRecord_AddNegativeLeavesQuantity(t *testing.T) {
	r, err := NewStockRecord(uuid.New(), "GOLD", 7)
	require.NoError(t, err)

	err = r.AddStock(-5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, int64(7), r.Quantity())
}

func TestStockRecord_ConcurrentRemove(t *testing.T) {
	r, err := NewStockRecord(uuid.New(), "GOLD", 50)
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		n  int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := r.RemoveStock(10); ok {
				mu.Lock()
				n++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(0), r.Quantity())
}

func TestStockRecord_SyncQuantity(t *testing.T) {
	r, err := NewStockRecord(uuid.New(), "GOLD", 4)
	require.NoError(t, err)
	require.NoError(t, r.SyncQuantity(9))
	assert.Equal(t, int64(9), r.Quantity())

	assert.ErrorIs(t, r.SyncQuantity(-1), ErrInvalidArgument)
	assert.Equal(t, int64(9), r.Quantity())
}
