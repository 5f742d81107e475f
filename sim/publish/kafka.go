package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/parkos/parkos/sim"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

// KafkaConfig configures the Kafka event publisher.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	QueueSize int // buffered events before new ones are dropped; 0 = 256
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends assignment events to a Kafka topic keyed by hub.
// Session listeners must not block, so events go through a bounded queue
// drained by one goroutine; when the queue is full the event is dropped
// and logged.
type KafkaPublisher struct {
	writer  messageWriter
	queue   chan Event
	done    chan struct{}
	now     func() time.Time
	timeout time.Duration

	mu      sync.Mutex
	closed  bool
	dropped int
}

var _ sim.Listener = (*KafkaPublisher)(nil)

// NewKafkaPublisher connects a hash-balanced writer to cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	logrus.Infof("kafka publisher: topic=%s brokers=%s", cfg.Topic, strings.Join(cfg.Brokers, ","))
	return newKafkaPublisher(w, cfg.QueueSize), nil
}

func newKafkaPublisher(w messageWriter, queueSize int) *KafkaPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	p := &KafkaPublisher{
		writer:  w,
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
		now:     time.Now,
		timeout: defaultWriteTimeout,
	}
	go p.run()
	return p
}

// OnForecast implements sim.Listener. Forecasts are not published.
func (p *KafkaPublisher) OnForecast(string, sim.ForecastOutcome) {}

// OnAssigned implements sim.Listener.
func (p *KafkaPublisher) OnAssigned(requestID, hubKey string, result sim.AssignmentResult, waitedSeconds float64) {
	p.enqueue(assignedEvent(requestID, hubKey, result, waitedSeconds, p.now()))
}

// OnAborted implements sim.Listener.
func (p *KafkaPublisher) OnAborted(requestID string, err error) {
	p.enqueue(abortedEvent(requestID, err, p.now()))
}

// Dropped returns how many events were discarded on a full queue.
func (p *KafkaPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *KafkaPublisher) enqueue(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.dropped++
		logrus.Warnf("kafka publisher: queue full, dropping %s event for %s", ev.Kind, ev.RequestID)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		if err := p.deliver(ev); err != nil {
			logrus.Errorf("kafka publisher: %v", err)
		}
	}
}

func (p *KafkaPublisher) deliver(ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}
	key := ev.HubKey
	if key == "" {
		key = ev.RequestID
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value, Time: ev.EmittedAt}); err != nil {
		return fmt.Errorf("writing %s event for %s: %w", ev.Kind, ev.RequestID, err)
	}
	return nil
}

// Close stops accepting events, delivers what is queued and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}
