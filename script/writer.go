// Package script writes the narration for a video idea. The LLM does the
// real writing; a deterministic template keeps jobs moving when it can't.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"auto-video-pipeline/config"
	"auto-video-pipeline/llm"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/quality"
	"auto-video-pipeline/types"
)

const scriptPrompt = `You are a professional scriptwriter for faceless YouTube channels.
Write the narration for a %s video titled %q.

OUTLINE: %s
TARGET AUDIENCE: %s
TARGET LENGTH: about %d words read aloud at a natural pace.

You MUST respond with ONLY valid JSON — no preamble, no markdown:
{
  "intro": "the cold open, hook first, no throat-clearing",
  "body": "the main narration",
  "conclusion": "the outro, end with an open question to the viewer"
}`

// Writer generates Scripts from VideoIdeas with a bounded quality loop.
type Writer struct {
	cfg      *config.Config
	gen      llm.TextGenerator
	assessor quality.Assessor
	log      *logsink.Logger
}

// New creates a Writer.
func New(cfg *config.Config, gen llm.TextGenerator, assessor quality.Assessor, log *logsink.Logger) *Writer {
	return &Writer{cfg: cfg, gen: gen, assessor: assessor, log: log}
}

// Write produces a script for the idea. Regenerates up to the configured
// attempt count while below the quality threshold and keeps the
// best-scoring attempt. The returned script is never empty.
func (w *Writer) Write(ctx context.Context, idea *types.VideoIdea, kind types.VideoKind) (*types.Script, error) {
	if idea == nil || strings.TrimSpace(idea.Title) == "" {
		return nil, fmt.Errorf("script: idea with non-empty title required")
	}

	targetWords := w.targetWords(kind)

	var best *types.Script
	for attempt := 1; attempt <= w.cfg.Quality.MaxAttempts; attempt++ {
		candidate := w.writeOnce(ctx, idea, targetWords)

		score, err := w.assessor.Assess(ctx, candidate.FullText(), kind)
		if err != nil {
			score = 5.0
		}
		candidate.QualityScore = score
		w.log.Printf("[script] attempt %d scored %.1f (%d words)", attempt, score, candidate.WordCount)

		if best == nil || score > best.QualityScore {
			best = candidate
		}
		if best.QualityScore >= w.cfg.Quality.Threshold {
			break
		}
	}

	w.log.Printf("[script] ✅ script ready: %d words, %.1f/10", best.WordCount, best.QualityScore)
	return best, nil
}

func (w *Writer) targetWords(kind types.VideoKind) int {
	if kind == types.KindShort {
		return w.cfg.Script.ShortTargetSec * w.cfg.Script.WordsPerMinute / 60
	}
	return w.cfg.Script.LongTargetMin * w.cfg.Script.WordsPerMinute
}

type scriptJSON struct {
	Intro      string `json:"intro"`
	Body       string `json:"body"`
	Conclusion string `json:"conclusion"`
}

// writeOnce tries the LLM once and falls back to the template script.
// Always returns a usable script.
func (w *Writer) writeOnce(ctx context.Context, idea *types.VideoIdea, targetWords int) *types.Script {
	kindWord := "long-form"
	if targetWords < 300 {
		kindWord = "short-form"
	}
	prompt := fmt.Sprintf(scriptPrompt, kindWord, idea.Title, idea.ScriptOutline, idea.TargetAudience, targetWords)

	raw, err := w.gen.Generate(ctx, w.cfg.Script.Model, prompt, w.cfg.Script.Temperature)
	if err != nil {
		w.log.Printf("[script] ⚠️  LLM generation failed: %v — using template fallback", err)
		return templateScript(idea)
	}

	var parsed scriptJSON
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &parsed); err != nil {
		w.log.Printf("[script] ⚠️  could not parse LLM script: %v — using template fallback", err)
		return templateScript(idea)
	}
	if strings.TrimSpace(parsed.Intro)+strings.TrimSpace(parsed.Body) == "" {
		w.log.Printf("[script] ⚠️  LLM returned an empty script — using template fallback")
		return templateScript(idea)
	}

	s := &types.Script{
		Intro:      strings.TrimSpace(parsed.Intro),
		Body:       strings.TrimSpace(parsed.Body),
		Conclusion: strings.TrimSpace(parsed.Conclusion),
	}
	s.CountWords()
	return s
}

// templateScript is the terminal fallback, built from the idea alone.
func templateScript(idea *types.VideoIdea) *types.Script {
	hook := fmt.Sprintf("What if everything you knew about %s was wrong?", idea.Title)
	if len(idea.Hooks) > 0 {
		hook = idea.Hooks[0]
	}

	s := &types.Script{
		Intro: fmt.Sprintf("%s Today we uncover %s.", hook, idea.Title),
		Body: fmt.Sprintf(
			"%s Every detail of this story has been checked against what we actually know, and the closer you look, the stranger it gets. Piece by piece, the picture changes — and by the end, you will see why so few people talk about it.",
			idea.ScriptOutline),
		Conclusion: "So here is the question that remains: what would you have done? Tell us in the comments, and subscribe so you don't miss the next story.",
	}
	s.CountWords()
	return s
}
