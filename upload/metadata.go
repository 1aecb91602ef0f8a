package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"auto-video-pipeline/llm"
	"auto-video-pipeline/types"
)

// Metadata is the listing package for one uploaded video.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Visibility  string   `json:"visibility"`
}

const titleMaxChars = 70

const metadataPrompt = `You are a YouTube SEO specialist. Generate metadata for this video.

Respond with ONLY valid JSON, no markdown and no explanation, with exactly
these fields:
- "title": string (max %d chars, curiosity hook, honest)
- "description": string (~200 words, SEO-rich, ends with a subscribe call to action and a comment question)
- "tags": array of up to 30 strings mixing broad and specific tags

CHANNEL: %s (topic: %s)
VIDEO TITLE (working): %s
FORMAT: %s
NARRATION OPENING:
%s`

// metadataFor builds the listing via the LLM, degrading to a template
// built from the idea when the model is unreachable or returns garbage.
func (p *Preparer) metadataFor(ctx context.Context, job *types.ProductionJob) *Metadata {
	meta, err := p.generateMetadata(ctx, job)
	if err != nil {
		p.log.Printf("[upload] ⚠️  metadata generation failed: %v — using template metadata", err)
		meta = templateMetadata(job)
	}

	// Titles come from a language model; truncate on runes so a
	// multibyte character is never split.
	if utf8.RuneCountInString(meta.Title) > titleMaxChars {
		runes := []rune(meta.Title)
		meta.Title = string(runes[:titleMaxChars-3]) + "..."
	}
	if len(meta.Tags) > 30 {
		meta.Tags = meta.Tags[:30]
	}
	meta.CategoryID = p.cfg.Upload.CategoryID
	meta.Visibility = p.cfg.Upload.Visibility
	return meta
}

func (p *Preparer) generateMetadata(ctx context.Context, job *types.ProductionJob) (*Metadata, error) {
	opening := job.Script.FullText()
	if len(opening) > 600 {
		opening = opening[:600]
	}
	prompt := fmt.Sprintf(metadataPrompt, titleMaxChars,
		job.Channel.Name, job.Channel.Topic, job.Idea.Title, job.Kind, opening)

	raw, err := p.gen.Generate(ctx, p.cfg.Idea.Model, prompt, 0.8)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &meta); err != nil {
		return nil, fmt.Errorf("parse metadata JSON: %w", err)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("metadata JSON has no title")
	}
	return &meta, nil
}

// templateMetadata is the offline fallback.
func templateMetadata(job *types.ProductionJob) *Metadata {
	topic := strings.ToLower(job.Channel.Topic)
	return &Metadata{
		Title: job.Idea.Title,
		Description: fmt.Sprintf(
			"%s\n\nA %s video from %s about %s.\n\nSubscribe for more, and tell us in the comments what we should cover next.",
			job.Idea.ScriptOutline, job.Kind, job.Channel.Name, topic),
		Tags: []string{topic, string(job.Kind), job.Channel.Name, "ai", "video"},
	}
}
