// Package llm defines the text-generation collaborator contract and an
// OpenAI-compatible client implementing it. Generation failures are data,
// not errors: callers inspect the response and fall back to templated
// replies.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sidekick/internal/config"
)

// Candidate is one generated completion.
type Candidate struct {
	Content string `json:"content"`
}

// Response is the generation outcome. Either Candidates is non-empty or Err
// describes the failure; a response with neither is also a soft failure.
type Response struct {
	Candidates []Candidate `json:"candidates,omitempty"`
	Err        string      `json:"error,omitempty"`
}

// Text returns the first candidate's content, reporting whether one exists.
func (r Response) Text() (string, bool) {
	if r.Err != "" || len(r.Candidates) == 0 {
		return "", false
	}
	content := strings.TrimSpace(r.Candidates[0].Content)
	return content, content != ""
}

// Generator produces text from a prompt. Implementations never return an
// error out of band; failures come back inside the Response.
type Generator interface {
	Generate(ctx context.Context, prompt string) Response
}

// Func adapts a function to the Generator interface.
type Func func(ctx context.Context, prompt string) Response

func (f Func) Generate(ctx context.Context, prompt string) Response {
	return f(ctx, prompt)
}

// Client is a Generator backed by an OpenAI-compatible chat completion API.
// The client applies its own timeout; core callers need no retry logic.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a generation client from config.
func NewClient(cfg config.GenerationConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey())
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	apiCfg.HTTPClient = httpClient

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{client: openai.NewClientWithConfig(apiCfg), model: model}
}

func (c *Client) Generate(ctx context.Context, prompt string) Response {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Response{Err: err.Error()}
	}
	candidates := make([]Candidate, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		candidates = append(candidates, Candidate{Content: choice.Message.Content})
	}
	return Response{Candidates: candidates}
}
