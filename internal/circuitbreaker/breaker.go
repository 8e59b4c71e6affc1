// Package circuitbreaker sheds calls to an unhealthy upstream. It never
// retries anything: a rejected call fails immediately with
// ErrBreakerOpen and the caller treats it like any other terminal
// failure.
package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

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

// ErrBreakerOpen is returned without attempting the call while the
// breaker is shedding load.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type Config struct {
	Name        string
	MaxFailures int           // consecutive failures before opening
	Cooldown    time.Duration // how long to stay open before probing
	MaxProbes   int           // calls admitted while half-open
}

// Breaker is a consecutive-failure circuit breaker. Closed passes calls
// through; MaxFailures consecutive failures open it; after Cooldown a
// limited number of probe calls decide whether it closes again.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	maxProbes   int

	mu           sync.Mutex
	state        State
	failures     int
	probes       int
	lastFailure  time.Time
	totalCalls   int64
	totalShed    int64
	totalFailed  int64
	totalSuccess int64

	logger *logrus.Logger
}

func New(config Config, logger *logrus.Logger) *Breaker {
	if config.Name == "" {
		config.Name = "unnamed"
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = 1
	}
	return &Breaker{
		name:        config.Name,
		maxFailures: config.MaxFailures,
		cooldown:    config.Cooldown,
		maxProbes:   config.MaxProbes,
		state:       StateClosed,
		logger:      logger,
	}
}

// Execute runs fn unless the breaker is shedding load. fn's error is
// returned unchanged so callers see the original failure.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.totalFailed++
		b.onFailure()
		return err
	}
	b.totalSuccess++
	b.onSuccess()
	return nil
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) < b.cooldown {
			b.totalShed++
			return ErrBreakerOpen
		}
		b.setState(StateHalfOpen)
		b.probes = 0
		fallthrough
	case StateHalfOpen:
		if b.probes >= b.maxProbes {
			b.totalShed++
			return ErrBreakerOpen
		}
		b.probes++
	}

	b.totalCalls++
	return nil
}

func (b *Breaker) onSuccess() {
	b.failures = 0
	if b.state == StateHalfOpen {
		b.setState(StateClosed)
		b.probes = 0
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.maxFailures {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.setState(StateOpen)
		b.probes = 0
	}
}

func (b *Breaker) setState(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	b.logger.WithFields(logrus.Fields{
		"circuit_breaker": b.name,
		"from_state":      prev.String(),
		"to_state":        next.String(),
	}).Info("Circuit breaker state changed")
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(StateClosed)
	b.failures = 0
	b.probes = 0
	b.lastFailure = time.Time{}
}

func (b *Breaker) Metrics() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return map[string]interface{}{
		"name":            b.name,
		"state":           b.state.String(),
		"failures":        b.failures,
		"total_calls":     b.totalCalls,
		"total_shed":      b.totalShed,
		"total_failed":    b.totalFailed,
		"total_successes": b.totalSuccess,
	}
}

func (b *Breaker) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("Breaker(name=%s, state=%s, failures=%d/%d)",
		b.name, b.state.String(), b.failures, b.maxFailures)
}
