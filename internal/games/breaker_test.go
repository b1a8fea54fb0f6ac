package games

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 30*time.Second)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Second)
	_ = cb.Call(func() error { return errBoom })
	_ = cb.Call(func() error { return nil })
	_ = cb.Call(func() error { return errBoom })
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, 30*time.Second)
	cb.now = func() time.Time { return now }

	_ = cb.Call(func() error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(31 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())

	// a failure while half-open reopens immediately
	_ = cb.Call(func() error { return errBoom })
	now = now.Add(31 * time.Second)
	_ = cb.Call(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerSourceIgnoresMisses(t *testing.T) {
	mock := NewMockExternalSource()
	src := NewBreakerSource(mock, NewCircuitBreaker(2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := src.GetGameByID(ctx, 999)
		assert.ErrorIs(t, err, ErrGameNotFound)
	}
	assert.Equal(t, StateClosed, src.Breaker().State())

	mock.ShouldFailGetByID = true
	for i := 0; i < 2; i++ {
		_, err := src.GetGameByID(ctx, 3328)
		assert.Error(t, err)
	}
	_, err := src.GetGameByID(ctx, 3328)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 7, mock.GetByIDCalls)
}
