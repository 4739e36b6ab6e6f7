package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// CircuitBreaker guards calls to an upstream dependency. After the
// failure ratio trips it rejects calls outright for a cooldown window,
// then lets a limited number of probes through before closing again.
type CircuitBreaker struct {
	name         string
	maxHalfOpen  uint32
	minRequests  uint32
	cooldown     time.Duration
	failureRatio float64

	mu        sync.Mutex
	state     State
	requests  uint32
	failures  uint32
	successes uint32
	openedAt  time.Time
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxHalfOpen:  5,
		minRequests:  10,
		cooldown:     30 * time.Second,
		failureRatio: 0.6,
		state:        StateClosed,
	}
}

// Execute runs req unless the breaker is open. The context is passed
// through untouched; cancellation is the caller's concern.
func (cb *CircuitBreaker) Execute(_ context.Context, req func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := req()
	cb.afterRequest(err == nil)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState(time.Now()) {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.requests >= cb.maxHalfOpen {
			return ErrCircuitOpen
		}
	}

	cb.requests++
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.successes++
		if cb.state == StateHalfOpen && cb.successes >= cb.maxHalfOpen {
			cb.reset(StateClosed)
		}
		// Forget ancient history so one bad minute can still trip a
		// long-lived closed breaker.
		if cb.state == StateClosed && cb.requests >= 100 {
			cb.reset(StateClosed)
		}
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || cb.readyToTrip() {
		cb.reset(StateOpen)
		cb.openedAt = time.Now()
	}
}

func (cb *CircuitBreaker) readyToTrip() bool {
	return cb.requests >= cb.minRequests &&
		float64(cb.failures)/float64(cb.requests) >= cb.failureRatio
}

// currentState transitions open -> half-open once the cooldown elapses.
// Callers must hold the mutex.
func (cb *CircuitBreaker) currentState(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.cooldown {
		cb.reset(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) reset(state State) {
	cb.state = state
	cb.requests = 0
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState(time.Now())
}
