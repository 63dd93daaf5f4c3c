// Package planner turns a goal into a bounded multi-step plan, executes it
// with conditional tool calls, reflects on the outcome, and persists a
// resumable checkpoint per user.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sidekick/internal/kvstore"
	"sidekick/internal/logging"
	"sidekick/internal/model"
	"sidekick/internal/tools"
	"sidekick/internal/trace"
)

const (
	baseSteps      = 4
	deepSteps      = 6
	maxSteps       = 8
	highConfidence = 0.85
	longGoalWords  = 40
)

// complexityTriggers raise the plan depth regardless of goal length.
var complexityTriggers = []string{
	"roadmap", "launch", "strategy", "architecture",
	"curriculum", "campaign", "research", "bootcamp",
}

// scaffolding is the fixed stage cycle plans are drafted from.
var scaffolding = []string{
	"Clarify success criteria",
	"Research constraints",
	"Design approach",
	"Prototype or pilot",
	"Measure outcomes",
	"Iterate and scale",
	"Document learnings",
	"Share results",
}

// Engine is the planning handler. One checkpoint per user: a second goal
// submission resumes the stored plan instead of re-planning.
type Engine struct {
	store  *kvstore.Store
	tools  *tools.Registry
	logger *zap.Logger
}

// New builds the planner over the shared store and tool registry.
func New(store *kvstore.Store, registry *tools.Registry, logger *zap.Logger) *Engine {
	return &Engine{store: store, tools: registry, logger: logging.OrNop(logger)}
}

// Handle runs the plan-execute-reflect pipeline for the envelope's goal.
// All failures below registry misuse come back as structured results.
func (e *Engine) Handle(ctx context.Context, env model.Envelope) model.Result {
	userID := env.Payload.UserID
	if userID == "" {
		userID = "user"
	}
	sessionID := env.Payload.SessionID
	if sessionID == "" {
		sessionID = "session"
	}
	goal := strings.TrimSpace(env.Payload.Text)
	traceID := env.Meta.TraceID
	if traceID == "" {
		traceID = trace.NewID()
	}
	ctx = trace.With(ctx, traceID)

	if goal == "" {
		return model.Result{
			Status: model.StatusError,
			Error:  "missing_goal",
			Reply:  "Please describe what you want to plan.",
		}
	}

	var checkpoint model.PlanCheckpoint
	found, err := e.store.Get(ctx, kvstore.NamespacePlannerRuns, userID, &checkpoint)
	if err != nil {
		e.logger.Error("planner_checkpoint_read_failed",
			zap.String("trace_id", traceID), zap.Error(err))
	}
	if found && checkpoint.PlanID != "" {
		e.logger.Info("planner_resume_checkpoint",
			zap.String("user_id", userID),
			zap.String("trace_id", traceID))
		return model.Result{
			Status:     model.StatusResumed,
			Checkpoint: &checkpoint,
			Reply: fmt.Sprintf(
				"Resuming your most recent plan for %q. You can start from any step or ask for adjustments.",
				checkpoint.Goal),
		}
	}

	var confidence float64
	if env.Payload.Intent != nil {
		confidence = env.Payload.Intent.Confidence
	}
	depth := determineDepth(goal, confidence)

	timeline := []model.TimelineEntry{
		e.timelineEntry("depth", fmt.Sprintf("level=%s steps=%d", depth.Level, depth.Steps), traceID),
	}

	steps := draftPlan(goal, depth)
	timeline = append(timeline,
		e.timelineEntry("plan", fmt.Sprintf("drafted %d steps", len(steps)), traceID))

	executionLog, toolCalls := e.executePlan(steps, goal, userID, sessionID, traceID)
	timeline = append(timeline,
		e.timelineEntry("execute", fmt.Sprintf("logged %d execution notes", len(executionLog)), traceID))

	reflection := e.reflect(len(steps), depth, traceID)
	timeline = append(timeline,
		e.timelineEntry("reflect", preview(reflection, 160), traceID))

	plan := model.PlanCheckpoint{
		PlanID:       uuid.NewString(),
		UserID:       userID,
		SessionID:    sessionID,
		Goal:         goal,
		Depth:        depth,
		Steps:        steps,
		ExecutionLog: executionLog,
		ToolCalls:    toolCalls,
		Reflection:   reflection,
		Timeline:     timeline,
		Done:         true,
		Timestamp:    float64(time.Now().UnixNano()) / 1e9,
	}

	if err := e.store.Set(ctx, kvstore.NamespacePlannerRuns, userID, plan); err != nil {
		e.logger.Error("planner_persist_failed",
			zap.String("trace_id", traceID), zap.Error(err))
		return model.Result{
			Status: model.StatusError,
			Error:  "persist_failed",
			Reply:  "The plan was drafted but could not be saved. Please try again.",
		}
	}

	return model.Result{
		Status: model.StatusCompleted,
		Plan:   &plan,
		Reply:  formatResponse(plan),
	}
}

// determineDepth is a pure function of the goal text and intent confidence.
func determineDepth(goal string, confidence float64) model.DepthConfig {
	text := strings.ToLower(goal)
	steps := baseSteps
	level := model.DepthStandard

	triggered := false
	for _, word := range complexityTriggers {
		if strings.Contains(text, word) {
			triggered = true
			break
		}
	}
	if len(strings.Fields(goal)) > longGoalWords || triggered {
		steps = deepSteps
		level = model.DepthDeep
	}
	if confidence >= highConfidence {
		if steps < maxSteps {
			steps++
		}
		if level == model.DepthStandard {
			level = model.DepthComprehensive
		}
	}

	prompts := 1
	if level != model.DepthStandard {
		prompts = 2
	}
	return model.DepthConfig{Level: level, Steps: steps, ReflectionPrompts: prompts}
}

func draftPlan(goal string, depth model.DepthConfig) []model.PlanStep {
	steps := make([]model.PlanStep, 0, depth.Steps)
	for idx := 0; idx < depth.Steps; idx++ {
		scaffold := scaffolding[idx%len(scaffolding)]
		steps = append(steps, model.PlanStep{
			Step:    idx + 1,
			Action:  fmt.Sprintf("%s for the goal: %s.", scaffold, goal),
			Success: "Evidence of progress captured in notes and metrics.",
			Status:  "planned",
		})
	}
	return steps
}

func (e *Engine) executePlan(steps []model.PlanStep, goal, userID, sessionID, traceID string) ([]model.ExecutionEntry, []model.ToolInvocationRecord) {
	executionLog := make([]model.ExecutionEntry, 0, len(steps))
	var toolCalls []model.ToolInvocationRecord

	for _, step := range steps {
		executionLog = append(executionLog, model.ExecutionEntry{
			Step:   step.Step,
			Action: step.Action,
			Result: fmt.Sprintf("Validated step %d by defining deliverables and aligning them with the goal.", step.Step),
			Status: "completed",
		})
		if record := e.maybeCallTool(step, goal, userID, sessionID, traceID); record != nil {
			toolCalls = append(toolCalls, *record)
		}
	}

	e.logger.Info("planner_execution_log",
		zap.Int("entries", len(executionLog)),
		zap.Int("tool_calls", len(toolCalls)),
		zap.String("trace_id", traceID))
	return executionLog, toolCalls
}

// maybeCallTool applies the fixed trigger table, first match wins. Tool
// failures are recorded, never escalated.
func (e *Engine) maybeCallTool(step model.PlanStep, goal, userID, sessionID, traceID string) *model.ToolInvocationRecord {
	action := strings.ToLower(step.Action)
	goalText := strings.ToLower(goal)

	var name string
	var arguments map[string]any
	switch {
	case strings.Contains(action, "research") || strings.Contains(action, "document"):
		name = "docs.lookup"
		arguments = map[string]any{"query": preview(goal, 160)}
	case strings.Contains(action, "measure") || strings.Contains(action, "monitor") || strings.Contains(action, "scan"):
		name = "web.search"
		arguments = map[string]any{"query": firstWord(goal), "tag": "metrics"}
	case strings.Contains(goalText, "schedule") || strings.Contains(goalText, "calendar") || strings.Contains(goalText, "onboard"):
		name = "calendar.manage"
		arguments = map[string]any{"action": "add_hold", "title": preview(goal, 60)}
	default:
		return nil
	}

	stepTrace := fmt.Sprintf("%s:%d", traceID, step.Step)
	result, err := e.tools.Call(name, userID, sessionID, stepTrace, arguments)
	if err != nil {
		// Unknown tool means broken wiring; surface loudly.
		panic(fmt.Sprintf("planner tool wiring: %v", err))
	}

	record := model.ToolInvocationRecord{
		Step:        step.Step,
		Tool:        result.Name,
		Success:     result.Success,
		Output:      result.Output,
		Diagnostics: result.Diagnostics,
	}
	if !record.Success {
		if record.Diagnostics == nil {
			record.Diagnostics = map[string]any{}
		}
		if _, ok := record.Diagnostics["warning"]; !ok {
			record.Diagnostics["warning"] = "guardrail or runtime failure"
		}
	}
	return &record
}

func (e *Engine) reflect(stepCount int, depth model.DepthConfig, traceID string) string {
	focus := "quick"
	if depth.ReflectionPrompts > 1 {
		focus = "comprehensive"
	}
	summary := fmt.Sprintf(
		"Completed %d steps with %s reflection. Key takeaway: keep tracking metrics after each iteration to detect risks early.",
		stepCount, focus)
	e.logger.Info("planner_reflection",
		zap.String("trace_id", traceID),
		zap.String("focus", focus),
		zap.Int("steps", stepCount))
	return summary
}

func (e *Engine) timelineEntry(stage, summary, traceID string) model.TimelineEntry {
	e.logger.Info("planner_stage",
		zap.String("stage", stage),
		zap.String("summary", summary),
		zap.String("trace_id", traceID))
	return model.TimelineEntry{
		Stage:     stage,
		Summary:   summary,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
}

func formatResponse(plan model.PlanCheckpoint) string {
	var bullets []string
	for i, step := range plan.Steps {
		if i >= 4 {
			break
		}
		bullets = append(bullets, fmt.Sprintf("%d. %s", step.Step, step.Action))
	}
	return fmt.Sprintf(
		"**Multi-Step Plan Created**\n\nGoal: %s\nDepth: %s (%d steps)\n\nFirst steps:\n%s\n\nReflection: %s",
		plan.Goal, plan.Depth.Level, plan.Depth.Steps,
		strings.Join(bullets, "\n"), plan.Reflection)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
