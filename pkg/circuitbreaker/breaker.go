// Package circuitbreaker guards calls to an optional dependency. After
// a run of failures the circuit opens and calls fail fast with ErrOpen;
// once a cooldown passes, a single probe decides whether to close
// again. The results cache sits behind one of these so a down Redis
// costs a recompute instead of a timeout per request.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrOpen is returned without running the operation while the circuit
// is open or another probe is already in flight.
var ErrOpen = errors.New("circuit breaker open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type Config struct {
	// FailureThreshold is the run of consecutive failures that opens
	// the circuit.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before one probe
	// call is let through.
	Cooldown time.Duration
	Logger   *zap.Logger
}

type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

func New(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Breaker{
		name:      name,
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.Cooldown,
		logger:    cfg.Logger,
	}
}

// Do runs fn unless the circuit is open. fn's error feeds the breaker
// and is returned as-is.
func (b *Breaker) Do(fn func() error) error {
	if !b.admit() {
		return ErrOpen
	}
	err := fn()
	b.observe(err == nil)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) observe(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	if ok {
		b.failures = 0
		if b.state != StateClosed {
			b.transition(StateClosed)
		}
		return
	}

	if b.state == StateHalfOpen {
		b.openedAt = time.Now()
		b.transition(StateOpen)
		return
	}

	b.failures++
	if b.state == StateClosed && b.failures >= b.threshold {
		b.openedAt = time.Now()
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.logger.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
