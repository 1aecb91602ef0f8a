package types

import (
	"fmt"
	"strings"
	"time"
)

// Channel is a named content category with a fixed topic.
// Channels are loaded from config once and never change during a run.
type Channel struct {
	Name  string `json:"name" yaml:"name"`
	Topic string `json:"topic" yaml:"topic"`
}

// VideoKind selects the output format of a production job.
type VideoKind string

const (
	KindLong  VideoKind = "long"
	KindShort VideoKind = "short"
)

// VideoIdea is the output of the idea step and the input of the script step.
// Immutable once created.
type VideoIdea struct {
	Title             string   `json:"title"`
	ScriptOutline     string   `json:"script_outline"`
	TargetAudience    string   `json:"target_audience"`
	Hooks             []string `json:"hooks"`
	EmotionalTriggers []string `json:"emotional_triggers"`
	Duration          string   `json:"duration"`
}

// Script is the structured narration text for one video.
type Script struct {
	Intro        string  `json:"intro"`
	Body         string  `json:"body"`
	Conclusion   string  `json:"conclusion"`
	WordCount    int     `json:"word_count"`
	QualityScore float64 `json:"quality_score"`
}

// FullText joins the script sections into the narration text.
func (s *Script) FullText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Intro, s.Body, s.Conclusion} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, "\n\n")
}

// CountWords recomputes WordCount from the section texts.
func (s *Script) CountWords() int {
	s.WordCount = len(strings.Fields(s.FullText()))
	return s.WordCount
}

// AssetKind identifies what a generated asset file contains.
type AssetKind string

const (
	AssetVoiceover AssetKind = "voiceover"
	AssetVisual    AssetKind = "visual"
	AssetMusic     AssetKind = "music"
)

// AssetSource records which tier of the fallback chain produced an asset.
type AssetSource string

const (
	SourcePrimary  AssetSource = "primary"
	SourceFallback AssetSource = "fallback"
)

// Asset is one generated media file. The assembler treats assets as
// read-only inputs.
type Asset struct {
	Path         string      `json:"path"`
	Kind         AssetKind   `json:"kind"`
	QualityScore float64     `json:"quality_score"`
	Source       AssetSource `json:"source"`
}

// RenderedVideo is the terminal artifact of a production job.
// Subtitles maps language code to the generated SRT path.
type RenderedVideo struct {
	Path        string            `json:"path"`
	Channel     string            `json:"channel"`
	DurationSec float64           `json:"duration_sec"`
	Subtitles   map[string]string `json:"subtitles"`
}

// UploadResult records a completed upload for a rendered video.
type UploadResult struct {
	VideoID    string `json:"video_id"`
	VideoURL   string `json:"video_url"`
	Title      string `json:"title"`
	UploadedAt string `json:"uploaded_at"`
}

// ProductionJob tracks one video's progress through the pipeline.
type ProductionJob struct {
	ID        string    `json:"id"`
	Channel   Channel   `json:"channel"`
	Kind      VideoKind `json:"kind"`
	Status    JobStatus `json:"status"`
	Step      Step      `json:"current_step"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`

	// Artifacts produced so far, filled in step order.
	Idea           *VideoIdea        `json:"idea,omitempty"`
	Script         *Script           `json:"script,omitempty"`
	Voiceover      *Asset            `json:"voiceover,omitempty"`
	Visuals        []*Asset          `json:"visuals,omitempty"`
	Music          *Asset            `json:"music,omitempty"`
	Timeline       string            `json:"timeline,omitempty"` // silent edit output from the compose step
	SubtitleTracks map[string]string `json:"subtitle_tracks,omitempty"`
	Rendered       *RenderedVideo    `json:"rendered,omitempty"`
	FeedbackScore  float64           `json:"feedback_score,omitempty"`
}

// NewProductionJob creates a pending job at the first step.
func NewProductionJob(id string, ch Channel, kind VideoKind) *ProductionJob {
	return &ProductionJob{
		ID:        id,
		Channel:   ch,
		Kind:      kind,
		Status:    StatusPending,
		Step:      StepSetupCheck,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a shallow snapshot safe to hand to API callers. Artifact
// pointers are shared but are never mutated once set.
func (j *ProductionJob) Clone() *ProductionJob {
	cp := *j
	return &cp
}

func (j *ProductionJob) String() string {
	return fmt.Sprintf("%s %s/%s [%s, step %d/%d %s]",
		j.ID, j.Channel.Name, j.Kind, j.Status, int(j.Step)+1, StepCount, j.Step)
}
