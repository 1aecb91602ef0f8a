// Package quality scores generated text so the generators' bounded
// regenerate-and-keep-best loops have something to compare against.
package quality

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"auto-video-pipeline/audience"
	"auto-video-pipeline/llm"
	"auto-video-pipeline/types"
)

// Assessor rates a piece of generated text on a 1-10 scale.
type Assessor interface {
	Assess(ctx context.Context, text string, kind types.VideoKind) (float64, error)
}

// LLMAssessor asks the language model to rate the text and falls back to
// the audience heuristic when the model is unreachable. Assess therefore
// always returns a score.
type LLMAssessor struct {
	gen       llm.TextGenerator
	model     string
	simulator *audience.Simulator
}

// New creates an LLMAssessor.
func New(gen llm.TextGenerator, model string, simulator *audience.Simulator) *LLMAssessor {
	return &LLMAssessor{gen: gen, model: model, simulator: simulator}
}

const assessPrompt = `Rate the following YouTube %s-video narration for hook strength, clarity and watch-time potential.
Respond with ONLY a single number from 1 to 10. No explanation.

NARRATION:
%s`

// Assess returns a 1-10 score. LLM failures degrade to the heuristic
// simulator rather than erroring.
func (a *LLMAssessor) Assess(ctx context.Context, text string, kind types.VideoKind) (float64, error) {
	if a.gen != nil {
		raw, err := a.gen.Generate(ctx, a.model, fmt.Sprintf(assessPrompt, kind, truncate(text, 4000)), 0)
		if err == nil {
			if score, ok := parseScore(raw); ok {
				return score, nil
			}
		}
	}
	return a.simulator.Score(text, kind), nil
}

// parseScore pulls the first number out of a model reply and clamps it to
// the 1-10 scale.
func parseScore(raw string) (float64, bool) {
	fields := strings.FieldsFunc(strings.TrimSpace(raw), func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	for _, f := range fields {
		score, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		if score < 1 {
			score = 1
		}
		if score > 10 {
			score = 10
		}
		return score, true
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
