// Package breaker provides a minimal, thread-safe circuit breaker that guards
// calls to the upstream recipe API.
//
// States:
//   - Closed: requests flow normally; consecutive failures are counted.
//   - Open: requests fail fast with [ErrOpen]; after OpenTimeout the breaker
//     moves to HalfOpen.
//   - HalfOpen: a limited number of probes are let through; enough
//     successes close the breaker, any failure reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Execute] while the breaker rejects calls.
var ErrOpen = errors.New("breaker: circuit open")

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds the circuit breaker parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed state
	// before the breaker trips to Open. Zero disables the breaker.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays Open before transitioning
	// to HalfOpen.
	OpenTimeout time.Duration

	// HalfOpenMaxSuccess is the number of consecutive successes required in
	// HalfOpen state to close the breaker again.
	HalfOpenMaxSuccess int

	// OnStateChange, when set, is called after every transition. It runs
	// with the breaker unlocked.
	OnStateChange func(from, to State)
}

// Breaker is a minimal circuit breaker. All methods are safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state     State
	failures  int // consecutive failures in Closed
	successes int // consecutive successes in HalfOpen
	inFlight  int // probes admitted in HalfOpen
	openedAt  time.Time
	nowFunc   func() time.Time // for testing; defaults to time.Now
}

// New creates a Breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.HalfOpenMaxSuccess <= 0 {
		cfg.HalfOpenMaxSuccess = 1
	}
	return &Breaker{
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
}

// Execute runs fn when the breaker allows it and records the outcome.
// It returns ErrOpen without calling fn while the breaker is Open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.Allow() {
		return ErrOpen
	}
	if err := fn(); err != nil {
		b.OnFailure()
		return err
	}
	b.OnSuccess()
	return nil
}

// State returns the current state of the breaker. In Open state it may
// auto-transition to HalfOpen if the timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to := b.checkOpenTimeout()
	s := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return s
}

// Allow reports whether a request may go through. In HalfOpen it admits at
// most HalfOpenMaxSuccess concurrent probes.
func (b *Breaker) Allow() bool {
	if b.cfg.FailureThreshold <= 0 {
		return true
	}

	b.mu.Lock()
	from, to := b.checkOpenTimeout()

	var ok bool
	switch b.state {
	case Closed:
		ok = true
	case HalfOpen:
		ok = b.inFlight < b.cfg.HalfOpenMaxSuccess
		if ok {
			b.inFlight++
		}
	}
	b.mu.Unlock()

	b.notify(from, to)
	return ok
}

// OnSuccess records a successful request.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	from, to := b.state, b.state

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.inFlight > 0 {
			b.inFlight--
		}
		if b.successes >= b.cfg.HalfOpenMaxSuccess {
			b.state = Closed
			b.failures = 0
			b.successes = 0
			b.inFlight = 0
			to = Closed
		}
	}
	b.mu.Unlock()

	b.notify(from, to)
}

// OnFailure records a failed request.
func (b *Breaker) OnFailure() {
	if b.cfg.FailureThreshold <= 0 {
		return
	}

	b.mu.Lock()
	from, to := b.state, b.state

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.toOpen()
			to = Open
		}
	case HalfOpen:
		b.toOpen()
		to = Open
	}
	b.mu.Unlock()

	b.notify(from, to)
}

// checkOpenTimeout transitions from Open to HalfOpen when the timeout has
// elapsed and returns the transition, if any. Must be called with b.mu held.
func (b *Breaker) checkOpenTimeout() (from, to State) {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.successes = 0
		b.inFlight = 0
		return Open, HalfOpen
	}
	return b.state, b.state
}

func (b *Breaker) toOpen() {
	b.state = Open
	b.openedAt = b.now()
	b.successes = 0
	b.inFlight = 0
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

func (b *Breaker) now() time.Time {
	if b.nowFunc != nil {
		return b.nowFunc()
	}
	return time.Now()
}
