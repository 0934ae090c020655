package registry

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/caduceon/acteledger/internal/record"
)

// EventSink receives externally observable events.
//
// Emission happens strictly after the operation's transaction commits,
// from inside the registry's writer critical section, so sinks observe
// events in commit order. Sink implementations must not call back into
// the registry's mutating operations.
type EventSink interface {
	Emit(ev record.Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(record.Event) {}

// LogSink writes each event as one structured log record.
// This is the default production sink - downstream collaborators tail
// the log stream.
type LogSink struct {
	Log zerolog.Logger
}

// Emit implements EventSink.
func (s LogSink) Emit(ev record.Event) {
	rec := s.Log.Info().
		Str("event", string(ev.Kind)).
		Int64("seq", ev.Seq).
		Time("timestamp", ev.Timestamp).
		Str("actor", string(ev.Actor))

	if ev.ActID != 0 {
		rec = rec.Int64("act_id", ev.ActID)
	}
	if ev.OverrideID != 0 {
		rec = rec.Int64("override_id", ev.OverrideID)
	}
	if ev.VersionID != 0 {
		rec = rec.Int64("version_id", ev.VersionID)
	}
	if ev.AuditID != 0 {
		rec = rec.Int64("audit_id", ev.AuditID)
	}
	if ev.BusinessNumber != "" {
		rec = rec.Str("business_number", ev.BusinessNumber)
	}
	if ev.Code != "" {
		rec = rec.Str("code", ev.Code)
	}
	if ev.VersionCode != "" {
		rec = rec.Str("version_code", ev.VersionCode)
	}
	if ev.Capability != "" {
		rec = rec.Str("capability", string(ev.Capability))
	}
	if ev.Subject != "" {
		rec = rec.Str("subject", string(ev.Subject))
	}
	if ev.ExternalRef != "" {
		rec = rec.Str("external_ref", ev.ExternalRef)
	}

	rec.Msg("ledger event")
}

// CollectSink accumulates events in memory for tests.
//
// Thread-safety: all methods are safe for concurrent use.
type CollectSink struct {
	mu     sync.Mutex
	events []record.Event
}

// Emit implements EventSink.
func (s *CollectSink) Emit(ev record.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of the collected events in emission order.
func (s *CollectSink) Events() []record.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Reset clears the collected events.
func (s *CollectSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
