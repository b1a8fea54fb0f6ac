package games

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/binhbb2204/GameShelf/pkg/metrics"
	"github.com/binhbb2204/GameShelf/pkg/models"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker opens after threshold consecutive failures and lets a trial
// call through once timeout has passed. Two successes in half-open close it.
type CircuitBreaker struct {
	mu              sync.Mutex
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	state           CircuitState
	threshold       int
	timeout         time.Duration
	now             func() time.Time
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		timeout:   timeout,
		state:     StateClosed,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailureTime) > cb.timeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.threshold {
			cb.state = StateOpen
		}
		return err
	}

	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= 2 {
			cb.state = StateClosed
			cb.successCount = 0
		}
	}
	return nil
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
}

// BreakerSource guards an ExternalSource with a CircuitBreaker. Misses and
// a missing API key are answers, not outages, so they do not trip it.
type BreakerSource struct {
	inner   ExternalSource
	breaker *CircuitBreaker
}

func NewBreakerSource(inner ExternalSource, breaker *CircuitBreaker) *BreakerSource {
	return &BreakerSource{inner: inner, breaker: breaker}
}

func (b *BreakerSource) Breaker() *CircuitBreaker {
	return b.breaker
}

func (b *BreakerSource) Search(ctx context.Context, q string, pageSize int) ([]models.Game, error) {
	var (
		out  []models.Game
		soft error
	)
	err := b.breaker.Call(func() error {
		var err error
		out, err = b.inner.Search(ctx, q, pageSize)
		if isSoft(err) {
			soft = err
			return nil
		}
		return err
	})
	record("search", err, soft)
	if err != nil {
		return nil, err
	}
	return out, soft
}

func (b *BreakerSource) GetGameByID(ctx context.Context, id int64) (*models.GameDetails, error) {
	var (
		out  *models.GameDetails
		soft error
	)
	err := b.breaker.Call(func() error {
		var err error
		out, err = b.inner.GetGameByID(ctx, id)
		if isSoft(err) {
			soft = err
			return nil
		}
		return err
	})
	record("details", err, soft)
	if err != nil {
		return nil, err
	}
	if soft != nil {
		return nil, soft
	}
	return out, nil
}

func record(op string, err, soft error) {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		metrics.RecordCatalogRequest(op, "circuit_open")
	case err != nil:
		metrics.RecordCatalogRequest(op, "error")
	case errors.Is(soft, ErrGameNotFound):
		metrics.RecordCatalogRequest(op, "not_found")
	case soft != nil:
		metrics.RecordCatalogRequest(op, "skipped")
	default:
		metrics.RecordCatalogRequest(op, "ok")
	}
}

func isSoft(err error) bool {
	return errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled)
}
