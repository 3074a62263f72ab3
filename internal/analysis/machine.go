// Package analysis runs the submit / pending / result workflow shared by
// every analysis screen.
//
// A Machine owns one RequestState. Each valid Submit takes the next
// generation number and dispatches the service call in the background.
// When the call resolves, its result is applied only if that generation
// is still the one pending; anything else is a stale response and is
// dropped. The displayed state therefore always belongs to the most
// recently submitted request, whatever order responses arrive in.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultTimeout bounds a service call when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Service is the analysis collaborator. It may be local, remote or mocked
// and should stop early when ctx is cancelled.
type Service[P, R any] interface {
	Request(ctx context.Context, params P) (R, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc[P, R any] func(ctx context.Context, params P) (R, error)

func (f ServiceFunc[P, R]) Request(ctx context.Context, params P) (R, error) {
	return f(ctx, params)
}

// Options configures a Machine.
type Options[P any] struct {
	// Name labels logs and metrics, e.g. "prediction".
	Name string
	// Validate checks params before dispatch. Defaults to ValidateStruct.
	Validate func(P) error
	// Timeout bounds each service call. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Machine is the request state machine for one screen instance. It is
// safe for concurrent use.
type Machine[P, R any] struct {
	name     string
	svc      Service[P, R]
	validate func(P) error
	timeout  time.Duration

	mu        sync.Mutex
	gen       uint64
	state     State[R]
	cancel    context.CancelFunc // in-flight call of gen, if any
	closed    bool
	nextSubID int
	listeners map[int]func(State[R])

	// notifyMu is taken before mu is released so listeners observe
	// transitions in the order they were applied.
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// New returns an Idle machine dispatching to svc.
func New[P, R any](svc Service[P, R], opts Options[P]) *Machine[P, R] {
	m := &Machine[P, R]{
		name:      opts.Name,
		svc:       svc,
		validate:  opts.Validate,
		timeout:   opts.Timeout,
		state:     Idle[R](),
		listeners: make(map[int]func(State[R])),
	}
	if m.name == "" {
		m.name = "analysis"
	}
	if m.validate == nil {
		m.validate = ValidateStruct[P]
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	return m
}

// State returns the current state.
func (m *Machine[P, R]) State() State[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to receive every applied transition, in order.
// fn runs synchronously, must not block and must not call back into
// the machine.
func (m *Machine[P, R]) Subscribe(fn func(State[R])) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Submit validates params and, if they pass, dispatches them under a new
// generation which it returns. Invalid params move the machine to Failed
// with a ValidationError under the current generation; the service is not
// called. ctx supplies values to the service call but not its lifetime:
// calls end on resolution, timeout, a newer Submit, Reset or Close.
// A closed machine accepts nothing and returns ErrClosed.
func (m *Machine[P, R]) Submit(ctx context.Context, params P) (uint64, error) {
	verr := m.validate(params)

	m.mu.Lock()
	if m.closed {
		gen := m.gen
		m.mu.Unlock()
		return gen, ErrClosed
	}
	m.cancelInFlight()

	if verr != nil {
		gen := m.gen
		m.state = Failed[R](gen, verr)
		submitsTotal.WithLabelValues(m.name, "invalid").Inc()
		m.publish()
		return gen, nil
	}

	m.gen++
	gen := m.gen
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.state = Pending[R](gen)
	submitsTotal.WithLabelValues(m.name, "accepted").Inc()
	m.wg.Add(1)
	go m.run(callCtx, cancel, gen, params)
	m.publish()
	return gen, nil
}

// Reset returns the machine to Idle. Any in-flight generation becomes
// stale.
func (m *Machine[P, R]) Reset() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.cancelInFlight()
	m.state = Idle[R]()
	m.publish()
}

// Wait blocks until every dispatched call has resolved or been abandoned.
func (m *Machine[P, R]) Wait() { m.wg.Wait() }

// Close cancels the in-flight call, stops applying results and waits for
// background work to finish. The machine is unusable afterwards.
func (m *Machine[P, R]) Close() {
	m.mu.Lock()
	m.closed = true
	m.cancelInFlight()
	m.listeners = map[int]func(State[R]){}
	m.mu.Unlock()
	m.wg.Wait()
}

// cancelInFlight asks the running call, if any, to stop. Advisory only:
// fencing alone keeps its result out. Caller holds mu.
func (m *Machine[P, R]) cancelInFlight() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// publish hands the current state to listeners and releases mu.
// Caller holds mu.
func (m *Machine[P, R]) publish() {
	snapshot := m.state
	listeners := make([]func(State[R]), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

type result[R any] struct {
	payload R
	err     error
}

func (m *Machine[P, R]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, params P) {
	defer m.wg.Done()
	defer cancel()

	callCtx, stop := context.WithTimeout(ctx, m.timeout)
	defer stop()

	start := time.Now()
	done := make(chan result[R], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[R]{err: fmt.Errorf("service panic: %v", r)}
			}
		}()
		payload, err := m.svc.Request(callCtx, params)
		done <- result[R]{payload: payload, err: err}
	}()

	var next State[R]
	select {
	case res := <-done:
		switch {
		case res.err == nil:
			next = Succeeded(gen, res.payload)
		case ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
			next = Failed[R](gen, &TimeoutError{After: m.timeout})
		default:
			next = Failed[R](gen, &ServiceFailure{Err: res.err})
		}
	case <-callCtx.Done():
		// The service ignored cancellation. Its goroutine finishes on its own.
		if ctx.Err() == nil {
			next = Failed[R](gen, &TimeoutError{After: m.timeout})
		} else {
			next = Failed[R](gen, &ServiceFailure{Err: ctx.Err()})
		}
	}
	requestDuration.WithLabelValues(m.name).Observe(time.Since(start).Seconds())
	m.resolve(gen, next)
}

// resolve applies next if gen is still the pending generation.
func (m *Machine[P, R]) resolve(gen uint64, next State[R]) {
	m.mu.Lock()
	if m.closed || gen != m.gen || m.state.Phase != PhasePending || m.state.Generation != gen {
		current := m.gen
		m.mu.Unlock()
		staleDiscardedTotal.WithLabelValues(m.name).Inc()
		log.Printf("[analysis] %s: discarded stale response for generation %d (current %d)", m.name, gen, current)
		return
	}
	m.cancel = nil
	m.state = next
	outcomesTotal.WithLabelValues(m.name, next.Phase.String()).Inc()
	if next.Err != nil {
		log.Printf("[analysis] %s: generation %d failed: %v", m.name, gen, next.Err)
	}
	m.publish()
}
