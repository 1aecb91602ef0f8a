// Package voiceover narrates scripts. Engines are tried in order: the
// configured TTS command, edge-tts, and finally a pure-Go silent track so
// the pipeline always gets an audio file to cut against.
package voiceover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

// Engine is one way of turning text into an audio file. Synthesize writes
// the file into dir and returns its path.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text, dir string) (string, error)
}

// Generator walks the engine chain until one produces a playable file.
type Generator struct {
	engines []Engine
	dir     string
	log     *logsink.Logger
}

// New creates a Generator writing into assetsDir/voiceover.
func New(engines []Engine, assetsDir string, log *logsink.Logger) *Generator {
	return &Generator{
		engines: engines,
		dir:     filepath.Join(assetsDir, "voiceover"),
		log:     log,
	}
}

// DefaultEngines builds the standard chain for a config: external command
// (when set), edge-tts, silent-track terminal fallback.
func DefaultEngines(command, voice, format string, wordsPerMinute int) []Engine {
	var engines []Engine
	if command != "" {
		engines = append(engines, &CommandEngine{Command: command, Voice: voice, Format: format})
	}
	engines = append(engines,
		&CommandEngine{Command: "edge-tts", Voice: voice, Format: format},
		&SilenceEngine{WordsPerMinute: wordsPerMinute},
	)
	return engines
}

// Generate narrates the script. It never returns an empty asset: the last
// engine in the chain cannot fail.
func (g *Generator) Generate(ctx context.Context, script *types.Script) (*types.Asset, error) {
	text := script.FullText()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("voiceover: script has no narration text")
	}
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return nil, fmt.Errorf("voiceover: create dir: %w", err)
	}

	var lastErr error
	for i, engine := range g.engines {
		path, err := engine.Synthesize(ctx, text, g.dir)
		if err != nil {
			lastErr = err
			g.log.Printf("[voiceover] ⚠️  engine %q failed: %v — trying next", engine.Name(), err)
			continue
		}
		if err := checkNonEmpty(path); err != nil {
			lastErr = err
			g.log.Printf("[voiceover] ⚠️  engine %q wrote a bad file: %v — trying next", engine.Name(), err)
			continue
		}

		source := types.SourcePrimary
		if i > 0 {
			source = types.SourceFallback
		}
		g.log.Printf("[voiceover] ✅ narration ready via %s: %s", engine.Name(), path)
		return &types.Asset{Path: path, Kind: types.AssetVoiceover, Source: source}, nil
	}

	return nil, fmt.Errorf("voiceover: all engines failed: %w", lastErr)
}

func checkNonEmpty(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return fmt.Errorf("empty file %s", path)
	}
	return nil
}

// CommandEngine shells out to an external TTS program. The same shape
// handles a custom command, a python script, or edge-tts.
type CommandEngine struct {
	Command string
	Voice   string
	Format  string
}

func (e *CommandEngine) Name() string { return e.Command }

func (e *CommandEngine) Synthesize(ctx context.Context, text, dir string) (string, error) {
	ext := "." + strings.TrimPrefix(e.Format, ".")
	if e.Format == "" {
		ext = ".mp3"
	}
	outFile := filepath.Join(dir, types.UniqueName(types.AssetVoiceover, ext))

	command := strings.TrimSpace(e.Command)
	if _, err := exec.LookPath(strings.Fields(command)[0]); err != nil {
		return "", fmt.Errorf("%s not installed: %w", command, err)
	}

	var cmd *exec.Cmd
	switch {
	case command == "edge-tts":
		cmd = exec.CommandContext(ctx, "edge-tts",
			"--voice", e.Voice,
			"--text", text,
			"--write-media", outFile,
		)
	case strings.HasSuffix(command, ".py"):
		cmd = exec.CommandContext(ctx, "python3", command,
			"--text", text,
			"--output", outFile,
		)
	default:
		cmd = exec.CommandContext(ctx, command,
			"--text", text,
			"--output", outFile,
		)
	}
	cmd.Stderr = os.Stderr

	// External TTS endpoints flake; retry with a short linear backoff.
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = cmd.Run()
		if err == nil {
			return outFile, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
		cmd = cloneCmd(ctx, cmd)
	}
	return "", err
}

// cloneCmd rebuilds an exec.Cmd; a Cmd cannot be re-run after Run.
func cloneCmd(ctx context.Context, old *exec.Cmd) *exec.Cmd {
	cmd := exec.CommandContext(ctx, old.Path, old.Args[1:]...)
	cmd.Stderr = old.Stderr
	return cmd
}
