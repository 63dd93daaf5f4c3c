// Package moderation defines the content-moderation collaborator contract.
// The router consumes it as a gate; real deployments swap in a hosted
// moderation API behind the same interface.
package moderation

import "strings"

// Result is the structured moderation verdict.
type Result struct {
	Allowed  bool     `json:"allowed"`
	Reasons  []string `json:"reasons"`
	Category string   `json:"category,omitempty"`
	Severity int      `json:"severity"`
}

// Moderator judges whether text may proceed to generation.
type Moderator interface {
	Moderate(text string) Result
}

// KeywordGate is a small offline moderator: a fixed keyword list per
// category. Intentionally conservative and illustrative only.
type KeywordGate struct {
	categories map[string][]string
}

// NewKeywordGate builds the default offline gate.
func NewKeywordGate() *KeywordGate {
	return &KeywordGate{
		categories: map[string][]string{
			"violence":  {"kill", "murder", "bomb", "explode", "torture"},
			"self_harm": {"suicide", "kill myself", "self-harm"},
			"illegal":   {"how to make a bomb", "steal credentials", "drug lab"},
		},
	}
}

func (g *KeywordGate) Moderate(text string) Result {
	t := strings.ToLower(text)
	for category, keywords := range g.categories {
		for _, k := range keywords {
			if strings.Contains(t, k) {
				return Result{
					Allowed:  false,
					Reasons:  []string{"matched keyword: " + k},
					Category: category,
					Severity: 2,
				}
			}
		}
	}
	return Result{Allowed: true, Reasons: []string{}}
}
