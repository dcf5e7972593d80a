package models

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestNewLedger_Invalid(t *testing.T) {
	_, err := NewLedger(uuid.Nil, d(10))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewLedger(uuid.New(), d(-1))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	l, err := NewLedger(uuid.New(), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, l.Balance().IsZero())
}

func TestLedger_Credit(t *testing.T) {
	l, err := NewLedger(uuid.New(), d(100))
	require.NoError(t, err)

	require.NoError(t, l.Credit(decimal.RequireFromString("0.01")))
	assert.Equal(t, "100.01", l.Balance().String())

	for _, bad := range []decimal.Decimal{decimal.Zero, d(-5)} {
		err := l.Credit(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, "100.01", l.Balance().String(), "rejected credit must not mutate")
	}
}

func TestLedger_Debit(t *testing.T) {
	l, err := NewLedger(uuid.New(), d(100))
	require.NoError(t, err)

	ok, err := l.Debit(d(40))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.Balance().Equal(d(60)))

	ok, err = l.Debit(d(61))
	require.NoError(t, err)
	assert.False(t, ok, "insufficient funds decline")
	assert.True(t, l.Balance().Equal(d(60)))

	ok, err = l.Debit(d(60))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.Balance().IsZero())

	_, err = l.Debit(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	l, err := NewLedger(uuid.New(), d(1000))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		granted atomic.Int64
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Debit(d(100))
			if err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted.Load())
	assert.True(t, l.Balance().IsZero())
}

func TestScenario_DebitDeclineThenCredit(t *testing.T) {
	l, err := NewLedger(uuid.New(), d(1000))
	require.NoError(t, err)

	ok, err := l.Debit(d(1500))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, l.Balance().Equal(d(1000)))

	require.NoError(t, l.Credit(d(500)))
	assert.True(t, l.Balance().Equal(d(1500)))

	ok, err = l.Debit(d(1500))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.Balance().IsZero())
}

func TestDomainError_Unwraps(t *testing.T) {
	err := PreconditionFailed("assembly.select_sector", "no sector available")
	assert.True(t, errors.Is(err, ErrPreconditionFailed))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, "assembly.select_sector: precondition failed: no sector available", err.Error())

	cause := errors.New("disk gone")
	wrapped := SourceUnavailable("store.commit", cause)
	assert.ErrorIs(t, wrapped, ErrSourceUnavailable)
	assert.ErrorIs(t, wrapped, cause)
}

func TestLedger_SyncBalance(t *testing.T) {
	l, err := NewLedger(uuid.New(), d(10))
	require.NoError(t, err)
	require.NoError(t, l.SyncBalance(d(25)))
	assert.True(t, l.Balance().Equal(d(25)))

	assert.ErrorIs(t, l.SyncBalance(d(-1)), ErrInvalidArgument)
	assert.True(t, l.Balance().Equal(d(25)))
}
