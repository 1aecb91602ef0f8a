package voiceover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

type failEngine struct{ name string }

func (e failEngine) Name() string { return e.name }
func (e failEngine) Synthesize(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%s: not installed", e.name)
}

// emptyFileEngine produces a zero-byte file, which the generator must
// reject and skip past.
type emptyFileEngine struct{}

func (emptyFileEngine) Name() string { return "empty-file" }
func (emptyFileEngine) Synthesize(_ context.Context, _, dir string) (string, error) {
	path := filepath.Join(dir, "empty.mp3")
	return path, os.WriteFile(path, nil, 0644)
}

func testScript() *types.Script {
	s := &types.Script{
		Intro: "A short narration for testing.",
		Body:  strings.Repeat("More words to pad the length out. ", 10),
	}
	s.CountWords()
	return s
}

func TestSilenceEngineAlwaysProduces(t *testing.T) {
	dir := t.TempDir()
	e := &SilenceEngine{WordsPerMinute: 130}

	path, err := e.Synthesize(context.Background(), "ten words of narration make about five seconds of audio", dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if fi.Size() <= 44 {
		t.Errorf("WAV is header-only (%d bytes)", fi.Size())
	}

	data, _ := os.ReadFile(path)
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("output is not a RIFF/WAVE file")
	}
}

func TestGenerateFallsThroughChain(t *testing.T) {
	g := New([]Engine{
		failEngine{name: "custom-tts"},
		emptyFileEngine{},
		&SilenceEngine{WordsPerMinute: 130},
	}, t.TempDir(), logsink.NewNop())

	asset, err := g.Generate(context.Background(), testScript())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if asset.Source != types.SourceFallback {
		t.Errorf("asset source = %s, want fallback", asset.Source)
	}
	if asset.Kind != types.AssetVoiceover {
		t.Errorf("asset kind = %s", asset.Kind)
	}
	if fi, err := os.Stat(asset.Path); err != nil || fi.Size() == 0 {
		t.Errorf("asset file missing or empty: %v", err)
	}
}

func TestGenerateRejectsEmptyScript(t *testing.T) {
	g := New([]Engine{&SilenceEngine{}}, t.TempDir(), logsink.NewNop())
	if _, err := g.Generate(context.Background(), &types.Script{}); err == nil {
		t.Error("empty script must not produce a voiceover")
	}
}

func TestGenerateErrorsWhenAllEnginesFail(t *testing.T) {
	g := New([]Engine{failEngine{name: "a"}, failEngine{name: "b"}}, t.TempDir(), logsink.NewNop())
	if _, err := g.Generate(context.Background(), testScript()); err == nil {
		t.Error("all-failing chain must surface an error")
	}
}

func TestDefaultEnginesEndWithSilence(t *testing.T) {
	engines := DefaultEngines("", "en-US-GuyNeural", "mp3", 130)
	if len(engines) < 2 {
		t.Fatalf("expected at least edge-tts plus silence, got %d", len(engines))
	}
	if engines[len(engines)-1].Name() != "silence" {
		t.Errorf("terminal engine = %q, want silence", engines[len(engines)-1].Name())
	}

	withCustom := DefaultEngines("piper", "voice", "wav", 130)
	if len(withCustom) != len(engines)+1 {
		t.Errorf("custom command should add one engine: %d vs %d", len(withCustom), len(engines))
	}
}
