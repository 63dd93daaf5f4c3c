// Package model defines the envelope, intent, and plan checkpoint types
// shared across the router, planner, and tool layers.
package model

// Intent labels produced by the classifier.
const (
	IntentPlanner = "planner"
	IntentTask    = "task"
	IntentEmotion = "emotion"
	IntentSummary = "summary"
	IntentGeneral = "general"
)

// Handler result statuses.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCompleted = "completed"
	StatusResumed   = "resumed"
)

// IntentResult is the classifier output for one request. Produced once per
// request and immutable afterwards.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Meta carries routing and correlation info for an envelope.
type Meta struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TraceID string `json:"trace_id"`
}

// Payload carries the user message and its classification.
type Payload struct {
	UserID    string        `json:"user_id"`
	SessionID string        `json:"session_id"`
	Text      string        `json:"text"`
	Intent    *IntentResult `json:"intent,omitempty"`
}

// Envelope is the unit of communication between the router and handlers.
type Envelope struct {
	Meta    Meta    `json:"meta"`
	Payload Payload `json:"payload"`
}

// Result is the structured reply every handler returns. Handlers catch their
// own failures and report them here instead of returning an error.
type Result struct {
	Status     string          `json:"status"`
	Reply      string          `json:"reply,omitempty"`
	Error      string          `json:"error,omitempty"`
	Plan       *PlanCheckpoint `json:"plan,omitempty"`
	Checkpoint *PlanCheckpoint `json:"checkpoint,omitempty"`
}

// DepthConfig is the planner's depth decision for one goal.
type DepthConfig struct {
	Level             string `json:"level"`
	Steps             int    `json:"steps"`
	ReflectionPrompts int    `json:"reflection_prompts"`
}

// Depth levels.
const (
	DepthStandard      = "standard"
	DepthDeep          = "deep"
	DepthComprehensive = "comprehensive"
)

// PlanStep is one drafted step of a plan.
type PlanStep struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Success string `json:"success"`
	Status  string `json:"status"`
}

// ExecutionEntry records the deterministic outcome of one executed step.
type ExecutionEntry struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Result string `json:"result"`
	Status string `json:"status"`
}

// ToolInvocationRecord is an immutable record of one tool call made while
// executing a plan.
type ToolInvocationRecord struct {
	Step        int            `json:"step"`
	Tool        string         `json:"tool"`
	Success     bool           `json:"success"`
	Output      map[string]any `json:"output"`
	Diagnostics map[string]any `json:"diagnostics"`
}

// TimelineEntry marks one stage of a planner run.
type TimelineEntry struct {
	Stage     string  `json:"stage"`
	Summary   string  `json:"summary"`
	Timestamp float64 `json:"timestamp"`
}

// PlanCheckpoint is the persisted, resumable snapshot of a planner run for
// one user. Stored whole in the planner_runs namespace keyed by user id.
type PlanCheckpoint struct {
	PlanID       string                 `json:"plan_id"`
	UserID       string                 `json:"user_id"`
	SessionID    string                 `json:"session_id"`
	Goal         string                 `json:"goal"`
	Depth        DepthConfig            `json:"depth"`
	Steps        []PlanStep             `json:"steps"`
	ExecutionLog []ExecutionEntry       `json:"execution_log"`
	ToolCalls    []ToolInvocationRecord `json:"tool_calls"`
	Reflection   string                 `json:"reflection"`
	Timeline     []TimelineEntry        `json:"timeline"`
	Done         bool                   `json:"done"`
	Timestamp    float64                `json:"timestamp"`
}
