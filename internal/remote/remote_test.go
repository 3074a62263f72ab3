package remote

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimelense/internal/analysis"
	"crimelense/internal/events"
	"crimelense/pkg/kafka"
)

// memBus delivers published messages to topic subscribers in-process.
type memBus struct {
	mu       sync.Mutex
	subs     map[string][]func([]byte) error
	failWith error
	sent     []string
}

func newMemBus() *memBus { return &memBus{subs: map[string][]func([]byte) error{}} }

func (b *memBus) Publish(_ context.Context, topic, _ string, value any) error {
	b.mu.Lock()
	if b.failWith != nil {
		b.mu.Unlock()
		return b.failWith
	}
	b.sent = append(b.sent, topic)
	handlers := append([]func([]byte) error(nil), b.subs[topic]...)
	b.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	for _, h := range handlers {
		go h(data)
	}
	return nil
}

func (b *memBus) Subscribe(_ context.Context, topic, _ string, handler func([]byte) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], handler)
}

func (b *memBus) SubscribeLatest(ctx context.Context, topic, groupID string, handler func([]byte) error) {
	b.Subscribe(ctx, topic, groupID, handler)
}

type scoreParams struct {
	Area string `json:"area" validate:"notblank"`
}

type scoreResult struct {
	Score int `json:"score"`
}

func scorer() analysis.Service[scoreParams, scoreResult] {
	return analysis.ServiceFunc[scoreParams, scoreResult](func(_ context.Context, p scoreParams) (scoreResult, error) {
		if p.Area == "Nowhere" {
			return scoreResult{}, errors.New("no data for area")
		}
		return scoreResult{Score: len(p.Area)}, nil
	})
}

func setup(t *testing.T) (*memBus, *Broker, *Worker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := newMemBus()
	broker := NewBroker(bus)
	broker.Start(ctx, bus, "replies-test")
	worker := NewWorker(bus, 4, time.Second)
	Register(worker, "score", scorer())
	worker.Start(ctx, bus, "worker-test")
	t.Cleanup(worker.Wait)
	return bus, broker, worker
}

func TestRoundTrip(t *testing.T) {
	_, broker, _ := setup(t)
	client := NewClient[scoreParams, scoreResult](broker, "score")

	res, err := client.Request(context.Background(), scoreParams{Area: "Camden"})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Score)
	assert.Zero(t, broker.Pending())
}

func TestRemoteFailure(t *testing.T) {
	_, broker, _ := setup(t)

	_, err := NewClient[scoreParams, scoreResult](broker, "score").Request(context.Background(), scoreParams{Area: "Nowhere"})
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "score", re.Workflow)
	assert.Contains(t, re.Message, "no data for area")

	_, err = NewClient[scoreParams, scoreResult](broker, "unknown").Request(context.Background(), scoreParams{Area: "Soho"})
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Message, "unknown workflow")

	_, err = NewClient[scoreParams, scoreResult](broker, "score").Request(context.Background(), scoreParams{Area: ""})
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Message, "invalid request")
}

func TestRequestCancelledWhileWaiting(t *testing.T) {
	bus := newMemBus()
	broker := NewBroker(bus) // no worker: nobody answers
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient[scoreParams, scoreResult](broker, "score").Request(ctx, scoreParams{Area: "Soho"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, broker.Pending(), "abandoned waiter is removed")
	assert.Equal(t, []string{kafka.TopicAnalysisRequested}, bus.sent)
}

func TestPublishFailure(t *testing.T) {
	bus := newMemBus()
	bus.failWith = errors.New("broker unavailable")
	broker := NewBroker(bus)

	_, err := NewClient[scoreParams, scoreResult](broker, "score").Request(context.Background(), scoreParams{Area: "Soho"})
	assert.ErrorIs(t, err, bus.failWith)
	assert.Zero(t, broker.Pending())
}

func TestUnmatchedReplyIgnored(t *testing.T) {
	broker := NewBroker(newMemBus())
	assert.NotPanics(t, func() {
		broker.deliver(events.AnalysisCompletedEvent{RequestID: "someone-else"})
	})
}

// A remote client plugged into a machine keeps the generation fencing:
// the newer submission wins even though both go over the bus.
func TestMachineOverRemote(t *testing.T) {
	_, broker, _ := setup(t)
	client := NewClient[scoreParams, scoreResult](broker, "score")
	m := analysis.New[scoreParams, scoreResult](client, analysis.Options[scoreParams]{Name: "score", Timeout: time.Second})
	t.Cleanup(m.Close)

	m.Submit(context.Background(), scoreParams{Area: "A"})
	gen, err := m.Submit(context.Background(), scoreParams{Area: "Kensington"})
	require.NoError(t, err)
	m.Wait()

	st := m.State()
	require.Equal(t, analysis.PhaseSucceeded, st.Phase)
	assert.Equal(t, gen, st.Generation)
	assert.Equal(t, 10, st.Outcome.Payload.Score)

	m.Submit(context.Background(), scoreParams{Area: "Nowhere"})
	m.Wait()
	var sf *analysis.ServiceFailure
	assert.ErrorAs(t, m.State().Err, &sf)
}

func TestWorkerStopsAcceptingOnShutdown(t *testing.T) {
	bus := newMemBus()
	var calls atomic.Int32
	w := NewWorker(bus, 2, time.Second)
	Register(w, "score", analysis.ServiceFunc[scoreParams, scoreResult](func(context.Context, scoreParams) (scoreResult, error) {
		calls.Add(1)
		return scoreResult{}, nil
	}))
	w.Start(context.Background(), bus, "worker-test")
	w.Wait()

	late := events.AnalysisRequestedEvent{RequestID: "late", Workflow: "score", Params: json.RawMessage(`{"area":"Soho"}`)}
	require.NoError(t, bus.Publish(context.Background(), kafka.TopicAnalysisRequested, "late", late))
	assert.Never(t, func() bool { return calls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	bus.mu.Lock()
	assert.Equal(t, []string{kafka.TopicAnalysisRequested}, bus.sent, "no completion published")
	bus.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, NewWorker(bus, 1, time.Second).accept(ctx, late), "cancelled context accepts nothing")
}
