// Package pipeline drives production jobs through the fixed step sequence:
// setup-check, idea, script, voiceover, visuals, music, edit, subtitles,
// render, feedback. Steps only ever move forward; a failing step is
// retried a bounded number of times and then fails the job in place.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"auto-video-pipeline/config"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

// Sequencer executes one step at a time against a job.
type Sequencer struct {
	cfg    *config.Config
	stages Stages
	log    *logsink.Logger
}

// NewSequencer creates a Sequencer.
func NewSequencer(cfg *config.Config, stages Stages, log *logsink.Logger) *Sequencer {
	return &Sequencer{cfg: cfg, stages: stages, log: log}
}

// Advance executes the job's current step. On success the step counter
// moves forward by exactly one; on exhausted retries the job is marked
// failed with the counter unchanged. A job whose last step completes is
// marked done.
func (s *Sequencer) Advance(ctx context.Context, job *types.ProductionJob) error {
	if job.Status.Terminal() {
		return fmt.Errorf("pipeline: job %s is already %s", job.ID, job.Status)
	}
	if job.Step >= types.StepCount {
		return fmt.Errorf("pipeline: job %s has no steps left", job.ID)
	}

	if job.Status == types.StatusPending {
		job.Status = types.StatusRunning
	}

	step := job.Step
	var err error
	for attempt := 0; attempt <= s.cfg.Pipeline.MaxStepRetries; attempt++ {
		if attempt > 0 {
			s.log.Printf("[pipeline] job %s: retrying step %s (attempt %d/%d)",
				job.ID, step, attempt+1, s.cfg.Pipeline.MaxStepRetries+1)
			backoff := time.Duration(s.cfg.Pipeline.RetryBackoffSec*attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = s.runStep(ctx, job, step)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Printf("[pipeline] ⚠️  job %s step %s failed: %v", job.ID, step, err)
	}

	if err != nil {
		job.Status = types.StatusFailed
		job.Error = fmt.Sprintf("step %s: %v", step, err)
		s.log.Printf("[pipeline] ❌ job %s failed at step %s after %d attempt(s)",
			job.ID, step, s.cfg.Pipeline.MaxStepRetries+1)
		return err
	}

	job.Step++
	if job.Step >= types.StepCount {
		job.Status = types.StatusDone
		s.log.Printf("[pipeline] ✅ job %s complete: %s", job.ID, job.Rendered.Path)
	}
	return nil
}

// runStep dispatches one step. Artifacts land on the job itself so each
// step sees its predecessor's output.
func (s *Sequencer) runStep(ctx context.Context, job *types.ProductionJob, step types.Step) error {
	switch step {
	case types.StepSetupCheck:
		// A dead backend is not fatal: the generators degrade to their
		// fallback tiers. Surface it and move on.
		if err := s.stages.Setup.Check(ctx); err != nil {
			s.log.Printf("[pipeline] ⚠️  job %s: AI setup check failed: %v — fallback tiers will carry the run", job.ID, err)
		}
		return nil

	case types.StepIdea:
		idea, score, err := s.stages.Idea.Generate(ctx, job.Channel, job.Kind)
		if err != nil {
			return err
		}
		s.log.Printf("[pipeline] job %s: idea %.1f/10: %q", job.ID, score, idea.Title)
		job.Idea = idea
		return nil

	case types.StepScript:
		script, err := s.stages.Script.Write(ctx, job.Idea, job.Kind)
		if err != nil {
			return err
		}
		job.Script = script
		return nil

	case types.StepVoiceover:
		asset, err := s.stages.Voiceover.Generate(ctx, job.Script)
		if err != nil {
			return err
		}
		job.Voiceover = asset
		return nil

	case types.StepVisuals:
		assets, err := s.stages.Visuals.Generate(ctx, job.Idea, job.Kind)
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			return fmt.Errorf("visuals generator returned no assets")
		}
		job.Visuals = assets
		return nil

	case types.StepMusic:
		asset, err := s.stages.Music.Generate(ctx, job.Channel.Topic, s.narrationEstimate(job))
		if err != nil {
			return err
		}
		job.Music = asset
		return nil

	case types.StepEdit:
		return s.stages.Assembler.Compose(ctx, job)

	case types.StepSubtitles:
		return s.stages.Assembler.Subtitles(ctx, job)

	case types.StepRender:
		rendered, err := s.stages.Assembler.Render(ctx, job)
		if err != nil {
			return err
		}
		job.Rendered = rendered
		return nil

	case types.StepFeedback:
		// Feedback is advisory; its failure never burns a finished video.
		if job.Script != nil {
			job.FeedbackScore = s.stages.Feedback.Score(job.Script.FullText(), job.Kind)
			s.log.Printf("[pipeline] job %s: simulated audience score %.1f/10", job.ID, job.FeedbackScore)
		}
		return nil

	default:
		return fmt.Errorf("unknown step %d", step)
	}
}

// narrationEstimate sizes the music bed from the script word count at the
// configured reading pace.
func (s *Sequencer) narrationEstimate(job *types.ProductionJob) float64 {
	if job.Script == nil {
		return 60
	}
	return float64(job.Script.WordCount) / float64(s.cfg.Script.WordsPerMinute) * 60.0
}
