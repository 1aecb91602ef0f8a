// Package visuals produces the still images a video is cut from. Each
// image walks a source chain: diffusion model, stock photo, generated
// title card. The card source cannot fail, so a job always gets its
// visuals unless the chain itself was replaced.
package visuals

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

// Source is one way of obtaining an image for a prompt. Fetch writes the
// image into dir and returns its path.
type Source interface {
	Name() string
	Fetch(ctx context.Context, prompt, dir string, seed int) (string, error)
}

// Generator produces the ordered visual set for one video.
type Generator struct {
	sources    []Source
	dir        string
	countLong  int
	countShort int
	log        *logsink.Logger
}

// New creates a Generator writing into assetsDir/visual.
func New(sources []Source, assetsDir string, countLong, countShort int, log *logsink.Logger) *Generator {
	return &Generator{
		sources:    sources,
		dir:        filepath.Join(assetsDir, "visual"),
		countLong:  countLong,
		countShort: countShort,
		log:        log,
	}
}

// moodStyles decorate prompts so raw outlines render as cinematic frames.
var moodStyles = []string{
	"cinematic lighting, high contrast, photorealistic, 4K",
	"dramatic spotlight, moody atmosphere, shallow depth of field",
	"soft golden hour light, wide establishing shot, detailed",
	"dark and atmospheric, volumetric fog, film still",
}

// Generate fetches one image per prompt slot for the video kind. A slot
// fails only when every source in the chain fails for it, which fails the
// whole step — the assembler needs the complete ordered set.
func (g *Generator) Generate(ctx context.Context, idea *types.VideoIdea, kind types.VideoKind) ([]*types.Asset, error) {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return nil, fmt.Errorf("visuals: create dir: %w", err)
	}

	count := g.countLong
	if kind == types.KindShort {
		count = g.countShort
	}

	prompts := buildPrompts(idea, count)
	assets := make([]*types.Asset, 0, count)

	for i, prompt := range prompts {
		asset, err := g.fetchOne(ctx, prompt, i)
		if err != nil {
			return nil, fmt.Errorf("visuals: slot %d/%d: %w", i+1, count, err)
		}
		assets = append(assets, asset)
	}

	g.log.Printf("[visuals] ✅ %d visual(s) ready", len(assets))
	return assets, nil
}

func (g *Generator) fetchOne(ctx context.Context, prompt string, seed int) (*types.Asset, error) {
	var lastErr error
	for i, src := range g.sources {
		path, err := src.Fetch(ctx, prompt, g.dir, seed)
		if err != nil {
			lastErr = err
			g.log.Printf("[visuals] ⚠️  source %q failed for slot %d: %v — trying next", src.Name(), seed, err)
			continue
		}
		source := types.SourcePrimary
		if i > 0 {
			source = types.SourceFallback
		}
		g.log.Printf("[visuals] slot %d ready via %s: %s", seed, src.Name(), filepath.Base(path))
		return &types.Asset{Path: path, Kind: types.AssetVisual, Source: source}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no sources configured")
	}
	return nil, fmt.Errorf("all sources failed: %w", lastErr)
}

// buildPrompts derives count prompts from the idea, cycling outline
// sentences and mood styles so consecutive frames differ.
func buildPrompts(idea *types.VideoIdea, count int) []string {
	fragments := splitSentences(idea.ScriptOutline)
	if len(fragments) == 0 {
		fragments = []string{idea.Title}
	}

	prompts := make([]string, count)
	for i := 0; i < count; i++ {
		frag := fragments[i%len(fragments)]
		style := moodStyles[i%len(moodStyles)]
		prompts[i] = fmt.Sprintf("%s, %s, %s, no text, no watermark", idea.Title, frag, style)
	}
	return prompts
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			out = append(out, s)
		}
	}
	return out
}
