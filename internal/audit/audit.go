// Package audit is the advisory event trail of the pipeline. Events are
// always logged locally; a configurable subset of kinds is forwarded to
// external sinks. Forwarding is best-effort and can never fail the caller.
package audit

import (
	"context"
	"log"
)

// Kind classifies an audit event.
type Kind string

const (
	KindInfo       Kind = "INFO"
	KindRequest    Kind = "REQUEST"
	KindTokenCheck Kind = "TOKEN_CHECK"
	KindLogin      Kind = "LOGIN"
	KindError      Kind = "ERROR"
)

// Event is one audit entry. Data is sanitized by sinks before it leaves the
// process.
type Event struct {
	Kind    Kind
	Message string
	Data    map[string]interface{}
}

// Sink transmits an event to an external destination.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Recorder is the interface pipeline stages log through.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// forwardFailureCounter is the slice of the metrics collector the logger needs.
type forwardFailureCounter interface {
	RecordAuditForwardFailure()
}

// Logger fans events out to sinks according to the forward policy.
type Logger struct {
	sinks   []Sink
	forward map[Kind]bool
	metrics forwardFailureCounter // may be nil
}

// NewLogger builds a Logger. forwardKinds names the kinds relayed to sinks;
// all other kinds stay local. metrics may be nil.
func NewLogger(sinks []Sink, forwardKinds []string, metrics forwardFailureCounter) *Logger {
	forward := make(map[Kind]bool, len(forwardKinds))
	for _, k := range forwardKinds {
		forward[Kind(k)] = true
	}
	return &Logger{sinks: sinks, forward: forward, metrics: metrics}
}

// Record logs the event locally and, when its kind is in the forward set,
// relays it to every sink. Sink failures are logged and swallowed.
func (l *Logger) Record(ctx context.Context, e Event) {
	log.Printf("[AUDIT] [%s] %s", e.Kind, e.Message)

	if !l.forward[e.Kind] {
		return
	}
	for _, s := range l.sinks {
		if err := s.Send(ctx, e); err != nil {
			log.Printf("[AUDIT] sink error for %s event: %v", e.Kind, err)
			if l.metrics != nil {
				l.metrics.RecordAuditForwardFailure()
			}
		}
	}
}

// Nop is a Recorder that discards everything. Used when no audit channel is
// configured and in tests.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
