package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"auto-video-pipeline/config"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/monitor"
	"auto-video-pipeline/types"
)

// Archiver persists finished jobs. Terminal jobs are archived exactly once.
type Archiver interface {
	Archive(job *types.ProductionJob) error
}

// Producer owns the job table and runs jobs through the sequencer on a
// bounded worker pool. Between steps each worker re-checks the resource
// gate; over-ceiling usage parks the job as paused until pressure clears.
type Producer struct {
	cfg      *config.Config
	seq      *Sequencer
	gate     *monitor.Gate
	archiver Archiver
	log      *logsink.Logger

	// OnDone, when set, is called with a snapshot of every job that
	// finishes all steps. The upload preparer hangs off this.
	OnDone func(job *types.ProductionJob)

	mu      sync.Mutex
	jobs    map[string]*types.ProductionJob
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
	sem     chan struct{}
}

// NewProducer creates a Producer with a worker pool sized from config.
func NewProducer(cfg *config.Config, seq *Sequencer, gate *monitor.Gate, archiver Archiver, log *logsink.Logger) *Producer {
	n := cfg.Pipeline.MaxConcurrentJobs
	if n < 1 {
		n = 1
	}
	return &Producer{
		cfg:      cfg,
		seq:      seq,
		gate:     gate,
		archiver: archiver,
		log:      log,
		jobs:     make(map[string]*types.ProductionJob),
		cancels:  make(map[string]context.CancelFunc),
		sem:      make(chan struct{}, n),
	}
}

// Start registers a new job and launches its worker. The returned handle
// identifies the job in Status, Stop and the control API.
func (p *Producer) Start(ctx context.Context, ch types.Channel, kind types.VideoKind) (string, error) {
	job := types.NewProductionJob(uuid.NewString()[:8], ch, kind)

	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.jobs[job.ID] = job
	p.cancels[job.ID] = cancel
	p.mu.Unlock()

	p.log.Printf("[producer] job %s queued: %s %s", job.ID, ch.Name, kind)

	p.wg.Add(1)
	go p.run(runCtx, job.ID)
	return job.ID, nil
}

// run drives one job to a terminal status.
func (p *Producer) run(ctx context.Context, id string) {
	defer p.wg.Done()

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		p.markStopped(id)
		return
	}

	for {
		// Hold here while the machine is over its ceilings. The job is
		// visibly paused while waiting and resumes on the same step.
		err := p.gate.Wait(ctx,
			func(u monitor.Usage) {
				p.setStatus(id, types.StatusPaused)
				p.log.Printf("[producer] ⏸️  job %s paused (RAM %.0f%%, CPU %.0f%%)", id, u.RAMPercent, u.CPUPercent)
			},
			func(u monitor.Usage) {
				p.setStatus(id, types.StatusRunning)
				p.log.Printf("[producer] ▶️  job %s resumed (RAM %.0f%%, CPU %.0f%%)", id, u.RAMPercent, u.CPUPercent)
			},
		)
		if err != nil {
			p.markStopped(id)
			return
		}

		// Work on a snapshot so readers never see a half-mutated job.
		p.mu.Lock()
		snapshot := p.jobs[id].Clone()
		p.mu.Unlock()

		if snapshot.Status.Terminal() {
			return
		}

		advErr := p.seq.Advance(ctx, snapshot)

		p.mu.Lock()
		p.jobs[id] = snapshot
		p.mu.Unlock()

		if ctx.Err() != nil {
			p.markStopped(id)
			return
		}
		if advErr != nil || snapshot.Status.Terminal() {
			p.finish(snapshot)
			return
		}
	}
}

// finish archives a terminal job and fires the completion hook.
func (p *Producer) finish(job *types.ProductionJob) {
	if p.archiver != nil {
		if err := p.archiver.Archive(job); err != nil {
			p.log.Printf("[producer] ⚠️  archiving job %s failed: %v", job.ID, err)
		}
	}
	if job.Status == types.StatusDone && p.OnDone != nil {
		p.OnDone(job.Clone())
	}
}

// markStopped records a cancelled job as failed. A job that already
// reached a terminal status keeps it.
func (p *Producer) markStopped(id string) {
	p.mu.Lock()
	job, ok := p.jobs[id]
	if !ok || !types.CanTransition(job.Status, types.StatusFailed) {
		p.mu.Unlock()
		return
	}
	job.Status = types.StatusFailed
	job.Error = "stopped before completion"
	snapshot := job.Clone()
	p.mu.Unlock()

	p.log.Printf("[producer] 🛑 job %s stopped at step %s", id, snapshot.Step)
	p.finish(snapshot)
}

func (p *Producer) setStatus(id string, to types.JobStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok || !types.CanTransition(job.Status, to) {
		return
	}
	job.Status = to
}

// Stop cancels a single job.
func (p *Producer) Stop(id string) error {
	p.mu.Lock()
	cancel, ok := p.cancels[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("producer: unknown job %q", id)
	}
	cancel()
	return nil
}

// StopAll cancels every job and waits for the workers to drain.
func (p *Producer) StopAll() {
	p.mu.Lock()
	for _, cancel := range p.cancels {
		cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Wait blocks until every launched job has finished.
func (p *Producer) Wait() { p.wg.Wait() }

// Status returns a snapshot of one job.
func (p *Producer) Status(id string) (*types.ProductionJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.jobs[id]
	if !ok {
		return nil, fmt.Errorf("producer: unknown job %q", id)
	}
	return job.Clone(), nil
}

// List returns snapshots of every known job, newest first.
func (p *Producer) List() []*types.ProductionJob {
	p.mu.Lock()
	out := make([]*types.ProductionJob, 0, len(p.jobs))
	for _, job := range p.jobs {
		out = append(out, job.Clone())
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Counts tallies jobs by status for the status endpoint.
func (p *Producer) Counts() map[types.JobStatus]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[types.JobStatus]int)
	for _, job := range p.jobs {
		counts[job.Status]++
	}
	return counts
}

// Usage exposes the gate's latest resource sample.
func (p *Producer) Usage() monitor.Usage { return p.gate.Current() }

// RunDaily launches the configured daily quota for every channel and
// waits for all of it to finish.
func (p *Producer) RunDaily(ctx context.Context) error {
	p.log.Printf("[producer] daily run: %d channel(s), %d long + %d short(s) each",
		len(p.cfg.Channels), p.cfg.Daily.Long, p.cfg.Daily.Shorts)

	for _, ch := range p.cfg.Channels {
		for i := 0; i < p.cfg.Daily.Long; i++ {
			if _, err := p.Start(ctx, ch, types.KindLong); err != nil {
				return err
			}
		}
		for i := 0; i < p.cfg.Daily.Shorts; i++ {
			if _, err := p.Start(ctx, ch, types.KindShort); err != nil {
				return err
			}
		}
	}

	p.wg.Wait()

	counts := p.Counts()
	p.log.Printf("[producer] ✅ daily run finished: %d done, %d failed",
		counts[types.StatusDone], counts[types.StatusFailed])
	return nil
}
