package events

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives events one at a time; delivery failures are the sink's
// problem, the core never retries.
type Sink interface {
	Deliver(event DomainEvent)
}

// Publisher decouples the atomic core from external notification: Emit is
// non-blocking and drops on a full queue rather than stall a task commit.
type Publisher struct {
	queue  chan DomainEvent
	sink   Sink
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewPublisher(sink Sink, queueSize int, logger *zap.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	p := &Publisher{
		queue:  make(chan DomainEvent, queueSize),
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.queue {
		p.sink.Deliver(event)
	}
}

// Emit queues the event, fire-and-forget.
func (p *Publisher) Emit(event DomainEvent) {
	select {
	case p.queue <- event:
	default:
		p.logger.Warn("event queue full, dropping event", zap.String("type", event.EventType()))
	}
}

// Close drains the queue and stops the delivery goroutine.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	<-p.done
}

// ZapSink logs events; the default sink until a real integration is wired.
type ZapSink struct {
	Logger *zap.Logger
}

func (s *ZapSink) Deliver(event DomainEvent) {
	s.Logger.Info("domain event",
		zap.String("type", event.EventType()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("event", event),
	)
}
