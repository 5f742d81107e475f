package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkos/parkos/sim"
)

// fakeWriter records messages; when gate is set each write waits on it.
type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	gate   chan struct{}
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) messages() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func TestKafkaPublisher_PublishesKeyedEvents(t *testing.T) {
	// GIVEN a publisher over a recording writer
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8)
	p.now = func() time.Time { return fixedNow }

	// WHEN one assignment and one abort are reported and the publisher closes
	p.OnForecast("r1", sim.ForecastOutcome{})
	p.OnAssigned("r1", "WFC", sim.AssignmentResult{
		SpotName: "环球金融中心-公寓区车位", Category: sim.CategoryResidentialShared, FinalDistanceMeters: 317,
	}, 4)
	p.OnAborted("r2", sim.ErrCanceled)
	require.NoError(t, p.Close())

	// THEN both events were written in order with hub or request keys
	msgs := w.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WFC", string(msgs[0].Key))
	assert.Equal(t, "r2", string(msgs[1].Key))
	assert.True(t, w.closed)

	var ev Event
	require.NoError(t, json.Unmarshal(msgs[0].Value, &ev))
	assert.Equal(t, Event{
		Kind: KindAssigned, RequestID: "r1", HubKey: "WFC", SpotName: "环球金融中心-公寓区车位",
		Category: "ResidentialShared", DistanceMeters: 317, WalkMinutes: 5, WaitedSeconds: 4, EmittedAt: fixedNow,
	}, ev)

	require.NoError(t, json.Unmarshal(msgs[1].Value, &ev))
	assert.Equal(t, KindAborted, ev.Kind)
	assert.Equal(t, sim.ErrCanceled.Error(), ev.Reason)
}

func TestKafkaPublisher_FullQueueDropsWithoutBlocking(t *testing.T) {
	// GIVEN a writer stuck on its first message and a queue of one
	w := &fakeWriter{gate: make(chan struct{})}
	p := newKafkaPublisher(w, 1)

	// WHEN more events arrive than fit
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.OnAborted("r", sim.ErrCanceled)
		}
		close(done)
	}()

	// THEN the listener returns promptly and counts the drops
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener blocked on a full queue")
	}
	assert.GreaterOrEqual(t, p.Dropped(), 8)

	close(w.gate)
	require.NoError(t, p.Close())
	assert.Equal(t, 10-p.Dropped(), len(w.messages()))
}

func TestKafkaPublisher_WriteErrorIsLoggedNotFatal(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, 4)

	p.OnAborted("r1", sim.ErrCanceled)
	require.NoError(t, p.Close())

	assert.Empty(t, w.messages())
	p.OnAborted("r2", sim.ErrCanceled)
	assert.NoError(t, p.Close(), "second Close is a no-op")
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
	_, err = NewKafkaPublisher(KafkaConfig{Topic: "parkos.assignments"})
	assert.Error(t, err)
}
