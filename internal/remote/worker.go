package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"crimelense/internal/analysis"
	"crimelense/internal/events"
	"crimelense/pkg/kafka"
)

// Consumer reads a topic as part of a consumer group.
type Consumer interface {
	Subscribe(ctx context.Context, topic, groupID string, handler func([]byte) error)
}

// ErrUnknownWorkflow is reported for requests no handler is registered for.
var ErrUnknownWorkflow = errors.New("unknown workflow")

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Worker consumes analysis.requested events, runs them with the
// registered services and publishes analysis.completed.
type Worker struct {
	pub      Publisher
	timeout  time.Duration
	handlers map[string]handlerFunc
	g        errgroup.Group

	mu      sync.Mutex // orders g.Go against Wait
	stopped bool
}

// NewWorker returns a worker running at most concurrency requests at a
// time, each bounded by timeout.
func NewWorker(pub Publisher, concurrency int, timeout time.Duration) *Worker {
	w := &Worker{pub: pub, timeout: timeout, handlers: make(map[string]handlerFunc)}
	if concurrency > 0 {
		w.g.SetLimit(concurrency)
	}
	if w.timeout <= 0 {
		w.timeout = analysis.DefaultTimeout
	}
	return w
}

// Register answers workflow requests with svc. Params are validated the
// same way the requesting machine does.
func Register[P, R any](w *Worker, workflow string, svc analysis.Service[P, R]) {
	w.handlers[workflow] = func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		if err := analysis.ValidateStruct(params); err != nil {
			return nil, err
		}
		return svc.Request(ctx, params)
	}
}

// Start begins consuming analysis.requested in a background goroutine.
// Requests arriving after ctx is done or Wait is called are not accepted.
func (w *Worker) Start(ctx context.Context, sub Consumer, groupID string) {
	sub.Subscribe(ctx, kafka.TopicAnalysisRequested, groupID, func(data []byte) error {
		var ev events.AnalysisRequestedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		if !w.accept(ctx, ev) {
			log.Printf("[worker] shutting down, not accepting %s %s", ev.Workflow, ev.RequestID)
			return nil
		}
		log.Printf("[worker] analysis.requested → %s %s", ev.Workflow, ev.RequestID)
		return nil
	})
}

func (w *Worker) accept(ctx context.Context, ev events.AnalysisRequestedEvent) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || ctx.Err() != nil {
		return false
	}
	w.g.Go(func() error {
		w.Handle(ctx, ev)
		return nil
	})
	return true
}

// Wait stops accepting requests and blocks until every accepted one has
// been answered.
func (w *Worker) Wait() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	_ = w.g.Wait()
}

// Handle runs one request and publishes its completion.
func (w *Worker) Handle(ctx context.Context, ev events.AnalysisRequestedEvent) {
	done := events.AnalysisCompletedEvent{RequestID: ev.RequestID, Workflow: ev.Workflow}

	result, err := w.run(ctx, ev)
	if err == nil {
		done.Result, err = json.Marshal(result)
	}
	if err != nil {
		done.Result = nil
		done.Error = err.Error()
		log.Printf("[worker] %s %s failed: %v", ev.Workflow, ev.RequestID, err)
	}
	done.CompletedAt = time.Now().Format(time.RFC3339)

	if err := w.pub.Publish(ctx, kafka.TopicAnalysisCompleted, ev.RequestID, done); err != nil {
		log.Printf("[worker] failed to publish analysis.completed: %v", err)
		return
	}
	log.Printf("[worker] completed %s %s", ev.Workflow, ev.RequestID)
}

func (w *Worker) run(ctx context.Context, ev events.AnalysisRequestedEvent) (any, error) {
	h, ok := w.handlers[ev.Workflow]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownWorkflow, ev.Workflow)
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return h(ctx, ev.Params)
}
