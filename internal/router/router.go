// Package router is the front door: it classifies incoming text, wraps it in
// a traced envelope, and dispatches to the registered handler for the intent.
// Unrouted intents get an echo reply instead of an error.
package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sidekick/internal/intent"
	"sidekick/internal/kvstore"
	"sidekick/internal/logging"
	"sidekick/internal/model"
	"sidekick/internal/moderation"
	"sidekick/internal/trace"
)

const echoPreviewLen = 120

// Handler processes a routed envelope and reports its outcome as data.
type Handler interface {
	Handle(ctx context.Context, env model.Envelope) model.Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env model.Envelope) model.Result

func (f HandlerFunc) Handle(ctx context.Context, env model.Envelope) model.Result {
	return f(ctx, env)
}

// RouteResult pairs the dispatched envelope with the handler outcome.
// Warnings collect best-effort failures that did not affect the reply.
type RouteResult struct {
	Envelope model.Envelope `json:"envelope"`
	Result   model.Result   `json:"result"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Router classifies, gates, and dispatches messages.
type Router struct {
	classifier *intent.Classifier
	store      *kvstore.Store
	handlers   map[string]Handler
	moderator  moderation.Moderator
	logger     *zap.Logger
}

// New builds a router with no handlers registered. The moderator may be nil,
// which disables the safety gate.
func New(classifier *intent.Classifier, store *kvstore.Store, moderator moderation.Moderator, logger *zap.Logger) *Router {
	return &Router{
		classifier: classifier,
		store:      store,
		handlers:   map[string]Handler{},
		moderator:  moderator,
		logger:     logging.OrNop(logger),
	}
}

// RegisterHandler binds a handler to an intent, replacing any previous one.
func (r *Router) RegisterHandler(intentName string, h Handler) {
	r.handlers[intentName] = h
}

// Route runs one message through the pipeline: trace id, classification,
// moderation gate, dispatch, session footprint. Handler failures come back
// inside Result; Route itself only degrades, never errors.
func (r *Router) Route(ctx context.Context, userID, sessionID, text string) RouteResult {
	traceID := trace.NewID()
	ctx = trace.With(ctx, traceID)

	r.logger.Info("route_received",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
		zap.String("trace_id", traceID))

	classified := r.classifier.Classify(text)
	env := model.Envelope{
		Meta: model.Meta{
			From:    "router",
			To:      classified.Intent,
			TraceID: traceID,
		},
		Payload: model.Payload{
			UserID:    userID,
			SessionID: sessionID,
			Text:      text,
			Intent:    &classified,
		},
	}

	out := RouteResult{Envelope: env}

	if r.moderator != nil {
		if verdict := r.moderator.Moderate(text); !verdict.Allowed {
			r.logger.Warn("route_blocked",
				zap.String("trace_id", traceID),
				zap.String("category", verdict.Category),
				zap.Strings("reasons", verdict.Reasons))
			out.Result = model.Result{
				Status: model.StatusError,
				Error:  "safety_block",
				Reply:  "I can't help with that request.",
			}
			return out
		}
	}

	out.Result = r.dispatch(ctx, env)

	if err := r.recordSession(ctx, env); err != nil {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("session footprint not recorded: %v", err))
		r.logger.Warn("session_record_failed",
			zap.String("trace_id", traceID), zap.Error(err))
	}

	r.logger.Info("route_completed",
		zap.String("trace_id", traceID),
		zap.String("intent", classified.Intent),
		zap.String("status", out.Result.Status))
	return out
}

func (r *Router) dispatch(ctx context.Context, env model.Envelope) model.Result {
	handler, ok := r.handlers[env.Meta.To]
	if !ok {
		return model.Result{
			Status: model.StatusOK,
			Reply:  "Handled by general router: " + preview(env.Payload.Text, echoPreviewLen),
		}
	}

	r.logger.Info("dispatch",
		zap.String("trace_id", env.Meta.TraceID),
		zap.String("to", env.Meta.To))
	return handler.Handle(ctx, env)
}

// recordSession writes the last classification per session, confidence
// included, so follow-up turns can see how the previous one was routed.
// Best effort only.
func (r *Router) recordSession(ctx context.Context, env model.Envelope) error {
	if r.store == nil {
		return nil
	}
	footprint := map[string]any{
		"user_id": env.Payload.UserID,
		"intent":  env.Payload.Intent,
	}
	return r.store.Set(ctx, kvstore.NamespaceSessions, env.Payload.SessionID, footprint)
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
