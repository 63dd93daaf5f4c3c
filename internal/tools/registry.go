package tools

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"sidekick/internal/audit"
	"sidekick/internal/logging"
)

// Registry holds the registered tools and enforces guardrails per
// invocation. Every call, allowed or not, is recorded to the audit log.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	audit  *audit.Log
	logger *zap.Logger
}

// NewRegistry creates an empty registry writing to the given audit log.
func NewRegistry(auditLog *audit.Log, logger *zap.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		audit:  auditLog,
		logger: logging.OrNop(logger),
	}
}

// Register adds a tool. Registering the same name twice is an error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, t.Name())
	}
	r.tools[t.Name()] = t
	r.logger.Info("tool_registered", zap.String("tool", t.Name()))
	return nil
}

// MustRegister registers a tool and panics on error. For static wiring at
// startup.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(fmt.Sprintf("register tool %s: %v", t.Name(), err))
	}
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Call invokes a registered tool. An unknown name is a hard error; every
// other failure mode (guardrail rejection, invocation error, panic) comes
// back as a Result with Success=false.
func (r *Registry) Call(name, userID, sessionID, traceID string, arguments map[string]any) (Result, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if arguments == nil {
		arguments = map[string]any{}
	}
	req := Request{
		Name:      name,
		Arguments: arguments,
		UserID:    userID,
		SessionID: sessionID,
		TraceID:   traceID,
	}

	if !tool.Allowed(req) {
		r.logger.Warn("tool_blocked_guardrail",
			zap.String("tool", name),
			zap.String("trace_id", traceID))
		r.record(traceID, audit.SeverityWarn, map[string]any{
			"tool":       name,
			"user_id":    userID,
			"session_id": sessionID,
			"arguments":  arguments,
			"result":     "guardrail_violation",
		})
		return failure(name, "guardrail_violation"), nil
	}

	result, errored := r.invoke(tool, req)

	severity := audit.SeverityInfo
	switch {
	case errored:
		severity = audit.SeverityError
	case !result.Success:
		severity = audit.SeverityWarn
	}
	r.logger.Info("tool_invoked",
		zap.String("tool", name),
		zap.String("trace_id", traceID),
		zap.Bool("success", result.Success))
	r.record(traceID, severity, map[string]any{
		"tool":        name,
		"user_id":     userID,
		"session_id":  sessionID,
		"arguments":   arguments,
		"success":     result.Success,
		"diagnostics": result.Diagnostics,
	})
	return result, nil
}

// invoke runs the tool, converting errors and panics into failed results.
// errored reports a runtime failure inside the tool, as opposed to a soft
// failure the tool itself returned.
func (r *Registry) invoke(tool Tool, req Request) (result Result, errored bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool_panic",
				zap.String("tool", req.Name),
				zap.String("trace_id", req.TraceID),
				zap.Any("panic", rec))
			result = failure(req.Name, fmt.Sprintf("%v", rec))
			errored = true
		}
	}()

	result, err := tool.Invoke(req)
	if err != nil {
		r.logger.Error("tool_error",
			zap.String("tool", req.Name),
			zap.String("trace_id", req.TraceID),
			zap.Error(err))
		return failure(req.Name, err.Error()), true
	}
	if result.Name == "" {
		result.Name = req.Name
	}
	if result.Output == nil {
		result.Output = map[string]any{}
	}
	if result.Diagnostics == nil {
		result.Diagnostics = map[string]any{}
	}
	return result, false
}

func (r *Registry) record(traceID, severity string, payload map[string]any) {
	if r.audit == nil {
		return
	}
	r.audit.Record("tool_call", traceID, severity, payload)
}
