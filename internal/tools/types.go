// Package tools provides the guardrailed tool registry and the reference
// tools the planner invokes.
package tools

import "errors"

// Registry misuse errors. These indicate caller or wiring bugs, not user
// input, and are the only failures the registry surfaces as hard errors.
var (
	ErrUnknownTool           = errors.New("unknown tool")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

// Request describes one tool invocation.
type Request struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	TraceID   string         `json:"trace_id"`
}

// Result is the outcome of one tool invocation. Success=false with a
// diagnostics error code is the soft-failure path; the registry never lets a
// tool failure escape as an error.
type Result struct {
	Name        string         `json:"name"`
	Success     bool           `json:"success"`
	Output      map[string]any `json:"output"`
	Diagnostics map[string]any `json:"diagnostics"`
}

// Guardrails are the pre-invocation limits a tool declares. MaxArgs applies
// to every tool; the allow-lists only apply when non-empty.
type Guardrails struct {
	MaxArgs        int
	AllowedActions []string
	AllowedTags    []string
	MaxQueryLen    int
}

// ArgsAllowed checks the argument-count limit (default 10).
func (g Guardrails) ArgsAllowed(req Request) bool {
	max := g.MaxArgs
	if max <= 0 {
		max = 10
	}
	return len(req.Arguments) <= max
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Tool is a callable capability with declared guardrails. Allowed is checked
// by the registry before Invoke is entered; a rejected request never reaches
// Invoke.
type Tool interface {
	Name() string
	Description() string
	Guardrails() Guardrails
	Allowed(req Request) bool
	Invoke(req Request) (Result, error)
}

func failure(name, code string) Result {
	return Result{
		Name:        name,
		Success:     false,
		Output:      map[string]any{},
		Diagnostics: map[string]any{"error": code},
	}
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
