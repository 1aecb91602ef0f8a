package pipeline

import (
	"context"

	"auto-video-pipeline/types"
)

// The sequencer drives every step through these interfaces; production
// wiring lives in cmd/producer, tests substitute stubs.

// SetupChecker verifies the AI backends answer at all. Failures are
// logged, not fatal — every generator carries offline fallbacks.
type SetupChecker interface {
	Check(ctx context.Context) error
}

// SetupFunc adapts a plain function to SetupChecker.
type SetupFunc func(ctx context.Context) error

func (f SetupFunc) Check(ctx context.Context) error { return f(ctx) }

// IdeaGenerator produces a video idea and its quality score.
type IdeaGenerator interface {
	Generate(ctx context.Context, ch types.Channel, kind types.VideoKind) (*types.VideoIdea, float64, error)
}

// ScriptWriter turns an idea into narration.
type ScriptWriter interface {
	Write(ctx context.Context, idea *types.VideoIdea, kind types.VideoKind) (*types.Script, error)
}

// VoiceoverGenerator narrates a script into an audio asset.
type VoiceoverGenerator interface {
	Generate(ctx context.Context, script *types.Script) (*types.Asset, error)
}

// VisualsGenerator produces the ordered visual set for a video.
type VisualsGenerator interface {
	Generate(ctx context.Context, idea *types.VideoIdea, kind types.VideoKind) ([]*types.Asset, error)
}

// MusicGenerator supplies a background bed for the topic.
type MusicGenerator interface {
	Generate(ctx context.Context, topic string, durationSec float64) (*types.Asset, error)
}

// Assembler covers the edit, subtitles and render steps.
type Assembler interface {
	Compose(ctx context.Context, job *types.ProductionJob) error
	Subtitles(ctx context.Context, job *types.ProductionJob) error
	Render(ctx context.Context, job *types.ProductionJob) (*types.RenderedVideo, error)
}

// FeedbackScorer simulates audience reception of the final narration.
type FeedbackScorer interface {
	Score(text string, kind types.VideoKind) float64
}

// Stages bundles every step implementation the sequencer needs.
type Stages struct {
	Setup     SetupChecker
	Idea      IdeaGenerator
	Script    ScriptWriter
	Voiceover VoiceoverGenerator
	Visuals   VisualsGenerator
	Music     MusicGenerator
	Assembler Assembler
	Feedback  FeedbackScorer
}
