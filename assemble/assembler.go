// Package assemble composes one rendered video from a script, a voiceover
// track, an ordered visual set and a music bed. All heavy lifting is
// ffmpeg behind an injectable Runner; the assembler itself only decides
// timing, effects and file plumbing.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"auto-video-pipeline/config"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/translate"
	"auto-video-pipeline/types"
)

// ErrAssetMissing marks a missing or corrupt input asset. The step fails,
// no partial video is written, and the sequencer's retry policy applies.
var ErrAssetMissing = errors.New("assemble: input asset missing or corrupt")

// Assembler builds the video timeline, subtitle tracks and final render.
type Assembler struct {
	cfg        *config.Config
	runner     Runner
	prober     Prober
	translator translate.Translator
	log        *logsink.Logger
}

// New creates an Assembler.
func New(cfg *config.Config, runner Runner, prober Prober, translator translate.Translator, log *logsink.Logger) *Assembler {
	return &Assembler{cfg: cfg, runner: runner, prober: prober, translator: translator, log: log}
}

func (a *Assembler) jobDir(job *types.ProductionJob) string {
	return filepath.Join(a.cfg.Paths.Output, job.ID)
}

// checkAsset verifies an input exists and is non-empty.
func checkAsset(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no path", ErrAssetMissing)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAssetMissing, path, err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrAssetMissing, path)
	}
	return nil
}

// narrationSeconds measures the voiceover, falling back to a word-count
// estimate when probing isn't possible.
func (a *Assembler) narrationSeconds(job *types.ProductionJob) float64 {
	if dur, err := a.prober.Duration(job.Voiceover.Path); err == nil && dur > 0 {
		return dur
	}
	wpm := a.cfg.Script.WordsPerMinute
	return float64(job.Script.CountWords()) / float64(wpm) * 60.0
}

// Compose validates every input asset and cuts the silent timeline: each
// visual becomes a Ken Burns segment sized to its even share of the
// narration, with fades between segments and optional single-frame
// inserts. The timeline path lands on job.Timeline.
func (a *Assembler) Compose(ctx context.Context, job *types.ProductionJob) error {
	a.log.Printf("[assemble] composing timeline for job %s...", job.ID)

	if job.Script == nil || job.Voiceover == nil || len(job.Visuals) == 0 || job.Music == nil {
		return fmt.Errorf("%w: job %s lacks a prior-step artifact", ErrAssetMissing, job.ID)
	}
	if err := checkAsset(job.Voiceover.Path); err != nil {
		return err
	}
	for _, v := range job.Visuals {
		if err := checkAsset(v.Path); err != nil {
			return err
		}
	}
	if err := checkAsset(job.Music.Path); err != nil {
		return err
	}

	dir := a.jobDir(job)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	total := a.narrationSeconds(job)
	perSegment := total / float64(len(job.Visuals))

	// One Ken Burns clip per visual.
	var segments []string
	for i, visual := range job.Visuals {
		segFile := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp4", i))
		if err := a.kenBurnsSegment(ctx, visual.Path, segFile, perSegment); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, segFile)

		// Optional single-frame insert between segments.
		if a.cfg.Assemble.InsertFrames && i < len(job.Visuals)-1 {
			insert := filepath.Join(dir, fmt.Sprintf("insert_%03d.mp4", i))
			if err := a.singleFrameInsert(ctx, job.Visuals[(i+1)%len(job.Visuals)].Path, insert); err != nil {
				a.log.Printf("[assemble] ⚠️  insert frame %d failed: %v — skipping", i, err)
				continue
			}
			segments = append(segments, insert)
		}
	}

	timeline, err := a.concatSegments(ctx, segments, dir, total)
	if err != nil {
		return err
	}

	job.Timeline = timeline
	a.log.Printf("[assemble] ✅ timeline ready (%.1fs, %d segment(s)): %s", total, len(segments), timeline)
	return nil
}

// kenBurnsSegment renders a still into a slow-zoom clip of the given length.
func (a *Assembler) kenBurnsSegment(ctx context.Context, imgPath, outFile string, duration float64) error {
	if duration <= 0 {
		duration = 5.0
	}
	v := a.cfg.Visuals
	totalFrames := int(duration * float64(v.FPS))
	if totalFrames < 1 {
		totalFrames = 1
	}
	zoomStep := (v.KenBurnsZoom - 1.0) / float64(totalFrames)
	filter := fmt.Sprintf(
		"scale=%d:%d,zoompan=z='min(zoom+%.6f,%.3f)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:fps=%d,scale=%d:%d",
		v.Width*2, v.Height*2, zoomStep, v.KenBurnsZoom, totalFrames, v.FPS, v.Width, v.Height,
	)

	return a.runner.Run(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", imgPath,
		"-vf", filter,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
}

// singleFrameInsert renders one frame of the next visual as its own clip.
func (a *Assembler) singleFrameInsert(ctx context.Context, imgPath, outFile string) error {
	v := a.cfg.Visuals
	frameDur := 1.0 / float64(v.FPS)
	return a.runner.Run(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", imgPath,
		"-vf", fmt.Sprintf("scale=%d:%d", v.Width, v.Height),
		"-t", fmt.Sprintf("%.4f", frameDur),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
}

// concatSegments joins the segment clips and applies the leading/trailing
// fades.
func (a *Assembler) concatSegments(ctx context.Context, segments []string, dir string, total float64) (string, error) {
	listFile := filepath.Join(dir, "segments_concat.txt")
	var lines string
	for _, s := range segments {
		lines += fmt.Sprintf("file '%s'\n", s)
	}
	if err := os.WriteFile(listFile, []byte(lines), 0644); err != nil {
		return "", err
	}

	outFile := filepath.Join(dir, "timeline.mp4")
	fade := a.cfg.Assemble.FadeSec
	fadeFilter := fmt.Sprintf("fade=t=in:st=0:d=%.2f,fade=t=out:st=%.2f:d=%.2f", fade, total-fade, fade)

	err := a.runner.Run(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-vf", fadeFilter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	if err != nil {
		return "", fmt.Errorf("concat segments: %w", err)
	}
	return outFile, nil
}

// Render mixes narration over the music bed, marries audio to the
// timeline, burns the default-language subtitles and emits the
// RenderedVideo. No partial output survives a failure.
func (a *Assembler) Render(ctx context.Context, job *types.ProductionJob) (*types.RenderedVideo, error) {
	a.log.Printf("[render] rendering job %s...", job.ID)

	if job.Timeline == "" {
		return nil, fmt.Errorf("%w: job %s has no composed timeline", ErrAssetMissing, job.ID)
	}
	if err := checkAsset(job.Voiceover.Path); err != nil {
		return nil, err
	}

	dir := a.jobDir(job)
	total := a.narrationSeconds(job)

	// Mix narration with the ducked music bed.
	mixed := filepath.Join(dir, "audio_mixed.m4a")
	vol := a.cfg.Music.VolumeUnderNarration
	fade := a.cfg.Assemble.FadeSec
	mixFilter := fmt.Sprintf(
		"[1:a]volume=%.2f,afade=t=in:st=0:d=%.2f,afade=t=out:st=%.2f:d=%.2f[bed];[0:a][bed]amix=inputs=2:duration=first:normalize=0[aout]",
		vol, fade, total-fade, fade,
	)
	err := a.runner.Run(ctx, "ffmpeg", "-y",
		"-i", job.Voiceover.Path,
		"-i", job.Music.Path,
		"-filter_complex", mixFilter,
		"-map", "[aout]",
		"-c:a", "aac",
		"-b:a", "192k",
		mixed,
	)
	if err != nil {
		a.log.Printf("[render] ⚠️  music mix failed: %v — using narration only", err)
		mixed = job.Voiceover.Path
	}

	// Combine timeline + audio.
	combined := filepath.Join(dir, "combined.mp4")
	if err := a.runner.Run(ctx, "ffmpeg", "-y",
		"-i", job.Timeline,
		"-i", mixed,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		combined,
	); err != nil {
		return nil, fmt.Errorf("combine video+audio: %w", err)
	}

	finalVideo := filepath.Join(dir, fmt.Sprintf("final_%s.mp4", job.Kind))

	// Burn the first configured language's subtitles when available.
	burnLang := a.cfg.Assemble.Languages[0]
	if srt, ok := job.SubtitleTracks[burnLang]; ok {
		if err := a.burnSubtitles(ctx, combined, srt, finalVideo); err != nil {
			a.log.Printf("[render] ⚠️  subtitle burn failed: %v — shipping without burn-in", err)
			if err := a.runner.Run(ctx, "ffmpeg", "-y", "-i", combined, "-c", "copy", finalVideo); err != nil {
				return nil, fmt.Errorf("finalize video: %w", err)
			}
		}
	} else {
		if err := a.runner.Run(ctx, "ffmpeg", "-y", "-i", combined, "-c", "copy", finalVideo); err != nil {
			return nil, fmt.Errorf("finalize video: %w", err)
		}
	}

	subs := make(map[string]string, len(job.SubtitleTracks))
	for lang, path := range job.SubtitleTracks {
		subs[lang] = path
	}

	rendered := &types.RenderedVideo{
		Path:        finalVideo,
		Channel:     job.Channel.Name,
		DurationSec: total,
		Subtitles:   subs,
	}
	a.log.Printf("[render] ✅ final video ready: %s (%.1fs, %d subtitle track(s))", finalVideo, total, len(subs))
	return rendered, nil
}

func (a *Assembler) burnSubtitles(ctx context.Context, videoFile, srtFile, outFile string) error {
	c := a.cfg.Assemble
	filter := fmt.Sprintf(
		"subtitles=%s:force_style='FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=1,Alignment=2,MarginV=%d'",
		escapeSubtitlePath(srtFile), c.FontSize, c.MarginBottom,
	)
	return a.runner.Run(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "20",
		"-c:a", "copy",
		outFile,
	)
}
