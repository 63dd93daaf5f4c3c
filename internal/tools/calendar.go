package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sidekick/internal/kvstore"
	"sidekick/internal/trace"
)

// CalendarEvent is one stored calendar hold.
type CalendarEvent struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Source string `json:"source"`
}

// CalendarTool creates lightweight calendar holds and lists upcoming events.
// Events live in the events namespace keyed by user id.
type CalendarTool struct {
	store *kvstore.Store
}

// NewCalendarTool builds the calendar tool over the shared store.
func NewCalendarTool(store *kvstore.Store) *CalendarTool {
	return &CalendarTool{store: store}
}

func (t *CalendarTool) Name() string { return "calendar.manage" }

func (t *CalendarTool) Description() string {
	return "Create lightweight calendar holds or list upcoming events"
}

func (t *CalendarTool) Guardrails() Guardrails {
	return Guardrails{
		MaxArgs:        6,
		AllowedActions: []string{"list_upcoming", "add_hold"},
	}
}

// Allowed accepts only the two whitelisted actions. A missing action means
// list_upcoming.
func (t *CalendarTool) Allowed(req Request) bool {
	g := t.Guardrails()
	if !g.ArgsAllowed(req) {
		return false
	}
	action := argString(req.Arguments, "action")
	if action == "" {
		action = "list_upcoming"
	}
	return contains(g.AllowedActions, action)
}

func (t *CalendarTool) Invoke(req Request) (Result, error) {
	if argString(req.Arguments, "action") == "add_hold" {
		return t.addHold(req)
	}
	return t.listUpcoming(req)
}

func (t *CalendarTool) listUpcoming(req Request) (Result, error) {
	ctx := trace.With(context.Background(), req.TraceID)

	var events []CalendarEvent
	if _, err := t.store.Get(ctx, kvstore.NamespaceEvents, req.UserID, &events); err != nil {
		return Result{}, fmt.Errorf("read events: %w", err)
	}

	// Last three, most recent first.
	start := len(events) - 3
	if start < 0 {
		start = 0
	}
	upcoming := make([]CalendarEvent, 0, 3)
	for i := len(events) - 1; i >= start; i-- {
		upcoming = append(upcoming, events[i])
	}

	return Result{
		Name:        t.Name(),
		Success:     true,
		Output:      map[string]any{"events": upcoming},
		Diagnostics: map[string]any{"count": len(upcoming)},
	}, nil
}

func (t *CalendarTool) addHold(req Request) (Result, error) {
	title := strings.TrimSpace(argString(req.Arguments, "title"))
	if len(title) > 80 {
		title = title[:80]
	}
	if title == "" {
		return failure(t.Name(), "missing_title"), nil
	}

	date, err := time.Parse(time.RFC3339, argString(req.Arguments, "date"))
	if err != nil {
		if date, err = time.Parse("2006-01-02", argString(req.Arguments, "date")); err != nil {
			date = time.Now().UTC().Add(24 * time.Hour)
		}
	}
	hour := argString(req.Arguments, "time")
	if hour == "" {
		hour = "09:00"
	}

	event := CalendarEvent{
		Title:  title,
		Date:   date.Format(time.RFC3339),
		Time:   hour,
		Source: "tool_bus",
	}

	ctx := trace.With(context.Background(), req.TraceID)
	var events []CalendarEvent
	if _, err := t.store.Get(ctx, kvstore.NamespaceEvents, req.UserID, &events); err != nil {
		return Result{}, fmt.Errorf("read events: %w", err)
	}
	events = append(events, event)
	if err := t.store.Set(ctx, kvstore.NamespaceEvents, req.UserID, events); err != nil {
		return Result{}, fmt.Errorf("save events: %w", err)
	}

	return Result{
		Name:        t.Name(),
		Success:     true,
		Output:      map[string]any{"created": event},
		Diagnostics: map[string]any{"total_events": len(events)},
	}, nil
}
