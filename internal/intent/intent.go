// Package intent classifies user text into routing intents with a fixed,
// ordered rule table.
package intent

import (
	"strings"

	"go.uber.org/zap"

	"sidekick/internal/logging"
	"sidekick/internal/model"
)

// Rule pairs an intent with the keywords that trigger it. Rules are
// evaluated top to bottom; the first rule with any matching keyword wins
// even when later rules would also match.
type Rule struct {
	Intent     string
	Confidence float64
	Keywords   []string
}

// DefaultRules is the rule table in priority order:
// planner > task > emotion > summary. Anything unmatched is general.
var DefaultRules = []Rule{
	{
		Intent:     model.IntentPlanner,
		Confidence: 0.9,
		Keywords: []string{
			"teach", "explain", "learn", "what is", "how does", "advice",
			"suggest", "plan", "roadmap", "problem", "stuck", "review", "feedback",
		},
	},
	{
		Intent:     model.IntentTask,
		Confidence: 0.9,
		Keywords: []string{
			"task", "todo", "remind", "reminder", "add event", "schedule", "calendar",
		},
	},
	{
		Intent:     model.IntentEmotion,
		Confidence: 0.9,
		Keywords: []string{
			"sad", "stress", "anx", "feel", "upset", "depress", "lonely",
			"happy", "excited",
		},
	},
	{
		Intent:     model.IntentSummary,
		Confidence: 0.8,
		Keywords:   []string{"summary", "summarize", "tl;dr", "summ"},
	},
}

const defaultConfidence = 0.6

// Classifier is a deterministic, stateless keyword classifier.
type Classifier struct {
	rules  []Rule
	logger *zap.Logger
}

// New builds a classifier over the default rule table.
func New(logger *zap.Logger) *Classifier {
	return &Classifier{rules: DefaultRules, logger: logging.OrNop(logger)}
}

// Classify returns the intent for text. Matching is case-insensitive
// substring containment; ties resolve to the earliest rule.
func (c *Classifier) Classify(text string) model.IntentResult {
	t := strings.ToLower(text)

	result := model.IntentResult{Intent: model.IntentGeneral, Confidence: defaultConfidence}
	for _, rule := range c.rules {
		if matchesAny(t, rule.Keywords) {
			result = model.IntentResult{Intent: rule.Intent, Confidence: rule.Confidence}
			break
		}
	}

	c.logger.Info("intent_classified",
		zap.String("text_preview", preview(text, 120)),
		zap.String("intent", result.Intent),
		zap.Float64("confidence", result.Confidence))
	return result
}

func matchesAny(t string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
