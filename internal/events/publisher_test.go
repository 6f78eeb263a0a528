package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type captureSink struct {
	delivered chan DomainEvent
}

func (s *captureSink) Deliver(event DomainEvent) {
	s.delivered <- event
}

func TestEmitDeliversToSink(t *testing.T) {
	sink := &captureSink{delivered: make(chan DomainEvent, 4)}
	p := NewPublisher(sink, 4, zap.NewNop())
	defer p.Close()

	event := &SessionStartedEvent{SessionID: "s1", StartedAt: time.Now()}
	p.Emit(event)

	select {
	case got := <-sink.delivered:
		assert.Equal(t, "session.started", got.EventType())
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEmitNeverBlocksOnFullQueue(t *testing.T) {
	// a sink that never drains keeps the queue full
	sink := &captureSink{delivered: make(chan DomainEvent)}
	p := NewPublisher(sink, 1, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			p.Emit(&SessionEndedEvent{SessionID: "s1", EndedAt: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	sink := &captureSink{delivered: make(chan DomainEvent, 8)}
	p := NewPublisher(sink, 8, zap.NewNop())

	for i := 0; i < 3; i++ {
		p.Emit(&SessionEndedEvent{SessionID: "s1", EndedAt: time.Now()})
	}
	p.Close()

	assert.Len(t, sink.delivered, 3)
}
