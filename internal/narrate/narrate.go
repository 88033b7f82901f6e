// Package narrate implements the narrative answer capability (A5): turning
// a query's retrieved rows into a short prose answer. FloatChat
// standardizes on one narration provider rather than the pluggable
// multi-provider registry its teacher exposes (see DESIGN.md).
package narrate

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Narrator turns a structured answer request into prose.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// Request carries everything the narrator needs to write an answer without
// reaching back into the query pipeline itself.
type Request struct {
	Question      string
	Intent        string // "informational" | "data"
	RowCount      int
	HeadlineStats string // pre-rendered summary stats, e.g. "mean temp 14.2C over 212 rows"
	MaxSentences  int
}

type anthropicNarrator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic constructs a Narrator backed by the Anthropic Messages API.
func NewAnthropic(apiKey, baseURL, model string) Narrator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(baseURL, "/")))
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &anthropicNarrator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 512,
	}
}

func (a *anthropicNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	prompt := buildPrompt(req)
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic narration request: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func buildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("Answer the oceanographic data question below in at most ")
	fmt.Fprintf(&sb, "%d sentences. Be precise, do not invent numbers beyond what is given.\n\n", req.MaxSentences)
	fmt.Fprintf(&sb, "Question: %s\n", req.Question)
	fmt.Fprintf(&sb, "Rows returned: %d\n", req.RowCount)
	if req.HeadlineStats != "" {
		fmt.Fprintf(&sb, "Summary statistics: %s\n", req.HeadlineStats)
	}
	return sb.String()
}
