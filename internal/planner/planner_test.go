package planner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidekick/internal/audit"
	"sidekick/internal/kvstore"
	"sidekick/internal/model"
	"sidekick/internal/tools"
)

func newTestEngine(t *testing.T) (*Engine, *kvstore.Store, *audit.Log) {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	trail := audit.New(100, nil)
	registry := tools.DefaultRegistry(kv, t.TempDir(), trail, nil)
	return New(kv, registry, nil), kv, trail
}

func envelope(userID, text string, confidence float64) model.Envelope {
	return model.Envelope{
		Meta: model.Meta{From: "router", To: model.IntentPlanner, TraceID: "trace-1"},
		Payload: model.Payload{
			UserID:    userID,
			SessionID: "s1",
			Text:      text,
			Intent:    &model.IntentResult{Intent: model.IntentPlanner, Confidence: confidence},
		},
	}
}

func TestHandle_MissingGoal(t *testing.T) {
	e, _, _ := newTestEngine(t)
	result := e.Handle(context.Background(), envelope("u1", "   ", 0.9))
	assert.Equal(t, model.StatusError, result.Status)
	assert.Equal(t, "missing_goal", result.Error)
}

func TestHandle_CreatesPlan(t *testing.T) {
	e, kv, _ := newTestEngine(t)
	result := e.Handle(context.Background(), envelope("u1", "improve my writing", 0.6))

	require.Equal(t, model.StatusCompleted, result.Status)
	require.NotNil(t, result.Plan)
	plan := result.Plan

	assert.NotEmpty(t, plan.PlanID)
	assert.Equal(t, model.DepthStandard, plan.Depth.Level)
	assert.Equal(t, 4, plan.Depth.Steps)
	assert.Len(t, plan.Steps, 4)
	assert.Len(t, plan.ExecutionLog, 4, "one execution note per step")
	assert.True(t, plan.Done)
	assert.Contains(t, result.Reply, "**Multi-Step Plan Created**")
	assert.Contains(t, result.Reply, "improve my writing")

	var stored model.PlanCheckpoint
	found, err := kv.Get(context.Background(), kvstore.NamespacePlannerRuns, "u1", &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, plan.PlanID, stored.PlanID)
}

func TestHandle_ResumeIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	first := e.Handle(ctx, envelope("u1", "improve my writing", 0.6))
	require.Equal(t, model.StatusCompleted, first.Status)

	second := e.Handle(ctx, envelope("u1", "a completely different goal", 0.6))
	require.Equal(t, model.StatusResumed, second.Status)
	require.NotNil(t, second.Checkpoint)
	assert.Equal(t, first.Plan.PlanID, second.Checkpoint.PlanID)
	assert.Contains(t, second.Reply, `Resuming your most recent plan for "improve my writing"`)

	third := e.Handle(ctx, envelope("u1", "yet another goal", 0.6))
	assert.Equal(t, second.Checkpoint.PlanID, third.Checkpoint.PlanID)
}

func TestHandle_SeparateUsersSeparateCheckpoints(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	a := e.Handle(ctx, envelope("alice", "improve my writing", 0.6))
	b := e.Handle(ctx, envelope("bob", "improve my writing", 0.6))

	require.Equal(t, model.StatusCompleted, a.Status)
	require.Equal(t, model.StatusCompleted, b.Status)
	assert.NotEqual(t, a.Plan.PlanID, b.Plan.PlanID)
}

func TestDetermineDepth(t *testing.T) {
	tests := []struct {
		name       string
		goal       string
		confidence float64
		level      string
		steps      int
		prompts    int
	}{
		{"standard", "improve my writing", 0.6, model.DepthStandard, 4, 1},
		{"trigger word", "build a product roadmap", 0.6, model.DepthDeep, 6, 2},
		{"long goal", strings.Repeat("word ", 41), 0.6, model.DepthDeep, 6, 2},
		{"high confidence standard", "improve my writing", 0.9, model.DepthComprehensive, 5, 2},
		{"high confidence deep", "build a product roadmap", 0.9, model.DepthDeep, 7, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := determineDepth(tt.goal, tt.confidence)
			assert.Equal(t, tt.level, d.Level)
			assert.Equal(t, tt.steps, d.Steps)
			assert.Equal(t, tt.prompts, d.ReflectionPrompts)
		})
	}
}

func TestDetermineDepth_StepCap(t *testing.T) {
	// Even a deep, high-confidence goal never exceeds the step cap.
	goal := strings.Repeat("roadmap ", 50)
	d := determineDepth(goal, 0.95)
	assert.LessOrEqual(t, d.Steps, maxSteps)
}

func TestHandle_ToolTriggers(t *testing.T) {
	e, _, trail := newTestEngine(t)
	result := e.Handle(context.Background(), envelope("u1", "build a product roadmap", 0.6))
	require.Equal(t, model.StatusCompleted, result.Status)

	// The 6-step scaffold includes "Research constraints" and "Measure
	// outcomes", so docs.lookup and web.search both fire.
	toolNames := map[string]bool{}
	for _, call := range result.Plan.ToolCalls {
		toolNames[call.Tool] = true
	}
	assert.True(t, toolNames["docs.lookup"])
	assert.True(t, toolNames["web.search"])

	// Every tool call is audited with the step-scoped trace id.
	var audited int
	for _, ev := range trail.List(0) {
		if ev.EventType == "tool_call" {
			audited++
			assert.True(t, strings.HasPrefix(ev.TraceID, "trace-1:"),
				"trace %q should carry the step suffix", ev.TraceID)
		}
	}
	assert.Equal(t, len(result.Plan.ToolCalls), audited)
}

func TestHandle_CalendarTrigger(t *testing.T) {
	e, kv, _ := newTestEngine(t)
	result := e.Handle(context.Background(), envelope("u1", "onboard the new hire", 0.6))
	require.Equal(t, model.StatusCompleted, result.Status)

	var calendar int
	for _, call := range result.Plan.ToolCalls {
		if call.Tool == "calendar.manage" {
			calendar++
		}
	}
	assert.Greater(t, calendar, 0, "goal mentioning onboarding should create holds")

	var events []tools.CalendarEvent
	found, err := kv.Get(context.Background(), kvstore.NamespaceEvents, "u1", &events)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, events)
}

func TestHandle_ReflectionAndTimeline(t *testing.T) {
	e, _, _ := newTestEngine(t)
	result := e.Handle(context.Background(), envelope("u1", "build a product roadmap", 0.6))
	require.Equal(t, model.StatusCompleted, result.Status)

	assert.Contains(t, result.Plan.Reflection, "Completed 6 steps with comprehensive reflection.")

	stages := make([]string, 0, len(result.Plan.Timeline))
	for _, entry := range result.Plan.Timeline {
		stages = append(stages, entry.Stage)
	}
	assert.Equal(t, []string{"depth", "plan", "execute", "reflect"}, stages)
}
