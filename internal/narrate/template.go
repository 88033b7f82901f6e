package narrate

import (
	"context"
	"fmt"
)

// templateNarrator renders a fixed sentence pattern with no network access.
// It is the degraded-mode fallback when no Anthropic API key is configured,
// and the deterministic fixture for tests (spec §9 "the system degrades
// rather than refuses to run").
type templateNarrator struct{}

// NewTemplate constructs a dependency-free Narrator.
func NewTemplate() Narrator { return templateNarrator{} }

func (templateNarrator) Narrate(_ context.Context, req Request) (string, error) {
	if req.RowCount == 0 {
		return fmt.Sprintf("No matching Argo profiles were found for %q.", req.Question), nil
	}
	if req.HeadlineStats == "" {
		return fmt.Sprintf("Found %d matching record(s) for %q.", req.RowCount, req.Question), nil
	}
	return fmt.Sprintf("Found %d matching record(s) for %q. %s", req.RowCount, req.Question, req.HeadlineStats), nil
}
