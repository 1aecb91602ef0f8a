package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"auto-video-pipeline/config"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

// fakeRunner records invocations instead of shelling out.
type fakeRunner struct {
	calls [][]string
	fail  func(args []string) error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)
	if r.fail != nil {
		return r.fail(call)
	}
	return nil
}

type fakeProber struct{ dur float64 }

func (p fakeProber) Duration(string) (float64, error) { return p.dur, nil }

// fakeTranslator tags text with the target language, failing for
// configured languages.
type fakeTranslator struct{ failLangs map[string]bool }

func (t fakeTranslator) Translate(_ context.Context, text, _, target string) (string, error) {
	if t.failLangs[target] {
		return "", fmt.Errorf("translate: service unavailable")
	}
	return "[" + target + "] " + text, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Script: config.ScriptConfig{WordsPerMinute: 130},
		Visuals: config.VisualsConfig{
			Width: 640, Height: 360, FPS: 30, KenBurnsZoom: 1.08,
		},
		Music: config.MusicConfig{VolumeUnderNarration: 0.15},
		Assemble: config.AssembleConfig{
			Languages:       []string{"en", "es", "fr"},
			SourceLanguage:  "en",
			FadeSec:         0.5,
			FontSize:        24,
			MarginBottom:    50,
			MaxCharsPerLine: 42,
		},
		Paths: config.PathsConfig{Output: t.TempDir()},
	}
}

func testJob(t *testing.T) *types.ProductionJob {
	t.Helper()
	dir := t.TempDir()
	mkAsset := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("media bytes"), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	job := types.NewProductionJob("test1234", types.Channel{Name: "CKLegends", Topic: "History"}, types.KindShort)
	job.Script = &types.Script{
		Intro:      "The hidden story begins here.",
		Body:       "Three facts nobody connected. Each one changes the picture.",
		Conclusion: "What would you have done?",
	}
	job.Script.CountWords()
	job.Voiceover = &types.Asset{Path: mkAsset("vo.mp3"), Kind: types.AssetVoiceover}
	job.Visuals = []*types.Asset{
		{Path: mkAsset("v0.png"), Kind: types.AssetVisual},
		{Path: mkAsset("v1.png"), Kind: types.AssetVisual},
		{Path: mkAsset("v2.png"), Kind: types.AssetVisual},
	}
	job.Music = &types.Asset{Path: mkAsset("bed.mp3"), Kind: types.AssetMusic}
	return job
}

func TestComposeBuildsTimeline(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	a := New(cfg, runner, fakeProber{dur: 30}, fakeTranslator{}, logsink.NewNop())
	job := testJob(t)

	if err := a.Compose(context.Background(), job); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if job.Timeline == "" {
		t.Fatal("Compose did not set the timeline path")
	}
	// One segment render per visual plus the final concat.
	if want := len(job.Visuals) + 1; len(runner.calls) != want {
		t.Errorf("runner called %d times, want %d", len(runner.calls), want)
	}
	if !strings.Contains(job.Timeline, job.ID) {
		t.Errorf("timeline %q should live under the job directory", job.Timeline)
	}
}

func TestComposeRejectsMissingAssets(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, &fakeRunner{}, fakeProber{dur: 30}, fakeTranslator{}, logsink.NewNop())

	tests := []struct {
		name   string
		mutate func(*types.ProductionJob)
	}{
		{"no voiceover", func(j *types.ProductionJob) { j.Voiceover = nil }},
		{"voiceover path gone", func(j *types.ProductionJob) { j.Voiceover.Path = "/nonexistent/vo.mp3" }},
		{"no visuals", func(j *types.ProductionJob) { j.Visuals = nil }},
		{"no music", func(j *types.ProductionJob) { j.Music = nil }},
		{"empty visual file", func(j *types.ProductionJob) {
			empty := filepath.Join(t.TempDir(), "empty.png")
			os.WriteFile(empty, nil, 0644)
			j.Visuals[1].Path = empty
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := testJob(t)
			tt.mutate(job)
			err := a.Compose(context.Background(), job)
			if !errors.Is(err, ErrAssetMissing) {
				t.Errorf("Compose = %v, want ErrAssetMissing", err)
			}
			if job.Timeline != "" {
				t.Error("failed Compose must not leave a timeline path")
			}
		})
	}
}

func TestSubtitlesSkipsFailedLanguages(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, &fakeRunner{}, fakeProber{dur: 30}, fakeTranslator{failLangs: map[string]bool{"fr": true}}, logsink.NewNop())
	job := testJob(t)

	if err := a.Subtitles(context.Background(), job); err != nil {
		t.Fatalf("Subtitles: %v", err)
	}

	if _, ok := job.SubtitleTracks["en"]; !ok {
		t.Error("source language track missing")
	}
	if _, ok := job.SubtitleTracks["es"]; !ok {
		t.Error("translated es track missing")
	}
	if _, ok := job.SubtitleTracks["fr"]; ok {
		t.Error("fr track should be skipped when translation fails")
	}
	for lang, path := range job.SubtitleTracks {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("%s track unreadable: %v", lang, err)
		}
		if len(data) == 0 {
			t.Errorf("%s track is empty", lang)
		}
	}
}

func TestRenderProducesFinalVideo(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	a := New(cfg, runner, fakeProber{dur: 42}, fakeTranslator{}, logsink.NewNop())
	job := testJob(t)

	if err := a.Compose(context.Background(), job); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if err := a.Subtitles(context.Background(), job); err != nil {
		t.Fatalf("Subtitles: %v", err)
	}

	rendered, err := a.Render(context.Background(), job)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasSuffix(rendered.Path, "final_short.mp4") {
		t.Errorf("rendered path = %q", rendered.Path)
	}
	if rendered.DurationSec != 42 {
		t.Errorf("rendered duration = %f, want probed 42", rendered.DurationSec)
	}
	if len(rendered.Subtitles) != len(job.SubtitleTracks) {
		t.Errorf("rendered carries %d subtitle tracks, job has %d",
			len(rendered.Subtitles), len(job.SubtitleTracks))
	}
	if rendered.Channel != "CKLegends" {
		t.Errorf("rendered channel = %q", rendered.Channel)
	}
}

func TestRenderRequiresTimeline(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, &fakeRunner{}, fakeProber{dur: 30}, fakeTranslator{}, logsink.NewNop())
	job := testJob(t)

	if _, err := a.Render(context.Background(), job); !errors.Is(err, ErrAssetMissing) {
		t.Errorf("Render without timeline = %v, want ErrAssetMissing", err)
	}
}
