// Package idea turns a channel's topic into a concrete video idea. Primary
// path is the local LLM seeded with live trend hooks; when the model is
// down, a per-topic template bank keeps the pipeline fed.
package idea

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

const ideaPrompt = `You are a YouTube content strategist for a faceless channel about %s.
Invent ONE %s-form video idea for the channel "%s".

You MUST respond with ONLY valid JSON — no preamble, no markdown:
{
  "title": "click-worthy but honest title",
  "script_outline": "3-6 sentence outline of the video",
  "target_audience": "who this is for",
  "hooks": ["opening hook line", "..."],
  "emotional_triggers": ["curiosity", "..."],
  "duration": "%s"
}
%s`

// Generator produces VideoIdeas with a quality loop and a fallback chain.
type Generator struct {
	cfg      *config.Config
	gen      llm.TextGenerator
	assessor quality.Assessor
	trends   TrendSource // optional
	log      *logsink.Logger
}

// New creates a Generator. trends may be nil.
func New(cfg *config.Config, gen llm.TextGenerator, assessor quality.Assessor, trends TrendSource, log *logsink.Logger) *Generator {
	return &Generator{cfg: cfg, gen: gen, assessor: assessor, trends: trends, log: log}
}

// Generate returns an idea and its quality score. It regenerates up to the
// configured attempt count while the score is below threshold, keeps the
// best attempt, and never returns an empty idea: the template bank is the
// terminal fallback.
func (g *Generator) Generate(ctx context.Context, ch types.Channel, kind types.VideoKind) (*types.VideoIdea, float64, error) {
	hooks := g.fetchTrendHooks(ctx)

	var (
		best      *types.VideoIdea
		bestScore float64
	)

	for attempt := 1; attempt <= g.cfg.Quality.MaxAttempts; attempt++ {
		candidate := g.generateOnce(ctx, ch, kind, hooks)

		score, err := g.assessor.Assess(ctx, candidate.Title+". "+candidate.ScriptOutline, kind)
		if err != nil {
			score = 5.0
		}
		g.log.Printf("[idea] %s/%s attempt %d scored %.1f: %q", ch.Name, kind, attempt, score, candidate.Title)

		if best == nil || score > bestScore {
			best, bestScore = candidate, score
		}
		if bestScore >= g.cfg.Quality.Threshold {
			break
		}
	}

	g.log.Printf("[idea] ✅ %s/%s idea selected (%.1f/10): %q", ch.Name, kind, bestScore, best.Title)
	return best, bestScore, nil
}

func (g *Generator) fetchTrendHooks(ctx context.Context) []string {
	if g.trends == nil {
		return nil
	}
	hooks, err := g.trends.Hooks(ctx, g.cfg.Idea.TrendPostLimit)
	if err != nil {
		g.log.Printf("[idea] ⚠️  trend lookup failed: %v — continuing without trends", err)
		return nil
	}
	g.log.Printf("[idea] %d trend hook(s) fetched", len(hooks))
	return hooks
}

// generateOnce tries the LLM and falls back to the template bank. It
// always returns a usable idea.
func (g *Generator) generateOnce(ctx context.Context, ch types.Channel, kind types.VideoKind, hooks []string) *types.VideoIdea {
	prompt := buildPrompt(ch, kind, hooks, g.cfg.Script.LongTargetMin, g.cfg.Script.ShortTargetSec)

	raw, err := g.gen.Generate(ctx, g.cfg.Idea.Model, prompt, g.cfg.Idea.Temperature)
	if err != nil {
		g.log.Printf("[idea] ⚠️  LLM generation failed: %v — using template fallback", err)
		return templateIdea(ch, kind)
	}

	parsed, err := parseIdea(raw)
	if err != nil {
		g.log.Printf("[idea] ⚠️  could not parse LLM idea: %v — using template fallback", err)
		return templateIdea(ch, kind)
	}
	return parsed
}

func buildPrompt(ch types.Channel, kind types.VideoKind, hooks []string, longMin, shortSec int) string {
	duration := fmt.Sprintf("%d minutes", longMin)
	if kind == types.KindShort {
		duration = fmt.Sprintf("%d seconds", shortSec)
	}

	trendBlock := ""
	if len(hooks) > 0 {
		var sb strings.Builder
		sb.WriteString("\nCurrently trending posts for inspiration (do not copy, riff on the angles):\n")
		for _, h := range hooks {
			sb.WriteString("- " + h + "\n")
		}
		trendBlock = sb.String()
	}

	return fmt.Sprintf(ideaPrompt, ch.Topic, kind, ch.Name, duration, trendBlock)
}

func parseIdea(raw string) (*types.VideoIdea, error) {
	var idea types.VideoIdea
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &idea); err != nil {
		return nil, err
	}
	if strings.TrimSpace(idea.Title) == "" {
		return nil, fmt.Errorf("idea has empty title")
	}
	return &idea, nil
}

// templateIdea is the terminal fallback: a canned idea built from the
// channel topic. Cannot fail.
func templateIdea(ch types.Channel, kind types.VideoKind) *types.VideoIdea {
	topic := ch.Topic
	duration := "10-15 minutes"
	if kind == types.KindShort {
		duration = "30-60 seconds"
	}
	return &types.VideoIdea{
		Title:          fmt.Sprintf("The Hidden Truth About %s Nobody Talks About", topic),
		ScriptOutline:  fmt.Sprintf("Open with the most surprising fact about %s. Walk through three lesser-known stories, each more unexpected than the last. Close with an open question that invites comments.", topic),
		TargetAudience: fmt.Sprintf("%s enthusiasts and curious viewers", topic),
		Hooks: []string{
			fmt.Sprintf("What if everything you knew about %s was incomplete?", topic),
			"The evidence was hiding in plain sight.",
		},
		EmotionalTriggers: []string{"curiosity", "surprise", "wonder"},
		Duration:          duration,
	}
}
