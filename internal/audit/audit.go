// Package audit keeps a bounded, append-only trail of moderation, memory,
// and tool events. The trail is independent of the key-value store: it is an
// in-memory ring shared by reference between components.
package audit

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"sidekick/internal/logging"
)

// Severity levels used by recorders.
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// Event statuses.
const (
	StatusOpen       = "open"
	StatusOverridden = "overridden"
)

// Note is an override annotation attached to an event.
type Note struct {
	Actor     string  `json:"actor"`
	Note      string  `json:"note"`
	Timestamp float64 `json:"timestamp"`
}

// Event is one audit trail entry. Append-only except for Status and Notes,
// which Override updates in place.
type Event struct {
	ID        int            `json:"id"`
	EventType string         `json:"event_type"`
	TraceID   string         `json:"trace_id"`
	Severity  string         `json:"severity"`
	Payload   map[string]any `json:"payload"`
	Timestamp float64        `json:"timestamp"`
	Status    string         `json:"status"`
	Notes     []Note         `json:"notes"`
}

// Log is a bounded ring of events, newest first. Safe for concurrent use.
type Log struct {
	mu     sync.Mutex
	events []Event
	nextID int
	max    int
	logger *zap.Logger
}

// New creates an audit log holding at most maxEvents entries.
func New(maxEvents int, logger *zap.Logger) *Log {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Log{
		nextID: 1,
		max:    maxEvents,
		logger: logging.OrNop(logger),
	}
}

// Record appends an event and returns a copy of it. The oldest event is
// dropped once the ring is full.
func (l *Log) Record(eventType, traceID, severity string, payload map[string]any) Event {
	if traceID == "" {
		traceID = "unknown"
	}
	if severity == "" {
		severity = SeverityInfo
	}
	if payload == nil {
		payload = map[string]any{}
	}

	l.mu.Lock()
	event := Event{
		ID:        l.nextID,
		EventType: eventType,
		TraceID:   traceID,
		Severity:  severity,
		Payload:   payload,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Status:    StatusOpen,
		Notes:     []Note{},
	}
	l.nextID++
	l.events = append([]Event{event}, l.events...)
	if len(l.events) > l.max {
		l.events = l.events[:l.max]
	}
	l.mu.Unlock()

	l.logger.Info("audit_event",
		zap.String("event_type", eventType),
		zap.String("trace_id", traceID),
		zap.String("severity", severity))
	return event
}

// Override marks the event with the given id as overridden and attaches a
// note. Returns false if no such event remains in the ring.
func (l *Log) Override(eventID int, note, actor string) bool {
	if actor == "" {
		actor = "manual"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.events {
		if l.events[i].ID == eventID {
			l.events[i].Status = StatusOverridden
			l.events[i].Notes = append(l.events[i].Notes, Note{
				Actor:     actor,
				Note:      note,
				Timestamp: float64(time.Now().UnixNano()) / 1e9,
			})
			l.logger.Info("audit_override",
				zap.Int("event_id", eventID),
				zap.String("actor", actor))
			return true
		}
	}
	return false
}

// List returns up to limit events, newest first. limit <= 0 returns all.
func (l *Log) List(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := make([]Event, len(l.events))
	copy(events, l.events)
	if limit > 0 && limit < len(events) {
		return events[:limit]
	}
	return events
}

// Export returns the full trail, newest first.
func (l *Log) Export() []Event {
	return l.List(0)
}
