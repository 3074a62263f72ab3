// Package remote runs analysis requests over the event bus: a Client
// publishes analysis.requested and waits for the matching
// analysis.completed, a Worker answers requests with local services.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"crimelense/internal/analysis"
	"crimelense/internal/events"
	"crimelense/pkg/kafka"
)

// Publisher sends a JSON message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// ReplySubscriber follows a topic from its latest offset.
type ReplySubscriber interface {
	SubscribeLatest(ctx context.Context, topic, groupID string, handler func([]byte) error)
}

// RemoteError is a failure reported by the worker that ran the request.
type RemoteError struct {
	Workflow string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Workflow, e.Message)
}

// Broker matches completion events to the requests waiting on them by
// request ID.
type Broker struct {
	pub Publisher

	mu      sync.Mutex
	waiting map[string]chan events.AnalysisCompletedEvent
}

func NewBroker(pub Publisher) *Broker {
	return &Broker{pub: pub, waiting: make(map[string]chan events.AnalysisCompletedEvent)}
}

// Start consumes analysis.completed until ctx is done. groupID must be
// unique per process so every instance sees every reply.
func (b *Broker) Start(ctx context.Context, sub ReplySubscriber, groupID string) {
	sub.SubscribeLatest(ctx, kafka.TopicAnalysisCompleted, groupID, func(data []byte) error {
		var ev events.AnalysisCompletedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		b.deliver(ev)
		return nil
	})
}

// Pending returns the number of requests awaiting a reply.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiting)
}

func (b *Broker) deliver(ev events.AnalysisCompletedEvent) {
	b.mu.Lock()
	ch, ok := b.waiting[ev.RequestID]
	delete(b.waiting, ev.RequestID)
	b.mu.Unlock()
	if !ok {
		// another instance's request, or one we stopped waiting for
		return
	}
	ch <- ev
}

func (b *Broker) call(ctx context.Context, workflow string, params any) (json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	id := uuid.New().String()
	ch := make(chan events.AnalysisCompletedEvent, 1)

	b.mu.Lock()
	b.waiting[id] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.waiting, id)
		b.mu.Unlock()
	}()

	ev := events.AnalysisRequestedEvent{
		RequestID:   id,
		Workflow:    workflow,
		Params:      raw,
		RequestedAt: time.Now().Format(time.RFC3339),
	}
	if err := b.pub.Publish(ctx, kafka.TopicAnalysisRequested, id, ev); err != nil {
		return nil, fmt.Errorf("publish analysis.requested: %w", err)
	}
	log.Printf("[remote] published %s request %s", workflow, id)

	select {
	case done := <-ch:
		if done.Error != "" {
			return nil, &RemoteError{Workflow: workflow, Message: done.Error}
		}
		return done.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Client is an analysis.Service answered by a remote worker.
type Client[P, R any] struct {
	broker   *Broker
	workflow string
}

func NewClient[P, R any](b *Broker, workflow string) *Client[P, R] {
	return &Client[P, R]{broker: b, workflow: workflow}
}

var _ analysis.Service[struct{}, struct{}] = (*Client[struct{}, struct{}])(nil)

func (c *Client[P, R]) Request(ctx context.Context, params P) (R, error) {
	var out R
	raw, err := c.broker.call(ctx, c.workflow, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", c.workflow, err)
	}
	return out, nil
}
