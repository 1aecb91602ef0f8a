package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"auto-video-pipeline/logsink"
	"auto-video-pipeline/monitor"
	"auto-video-pipeline/types"
)

type idleSampler struct{}

func (idleSampler) Sample() (monitor.Usage, error) {
	return monitor.Usage{RAMPercent: 10, CPUPercent: 10}, nil
}

type memArchiver struct {
	mu   sync.Mutex
	jobs []*types.ProductionJob
}

func (a *memArchiver) Archive(job *types.ProductionJob) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.jobs = append(a.jobs, job)
	return nil
}

func (a *memArchiver) list() []*types.ProductionJob {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*types.ProductionJob(nil), a.jobs...)
}

func newTestProducer(t *testing.T, visuals *stubVisuals) (*Producer, *memArchiver) {
	t.Helper()
	cfg := pipelineConfig()
	seq := NewSequencer(cfg, stubStages(visuals), logsink.NewNop())
	gate := monitor.NewGate(idleSampler{}, 80, 90, time.Millisecond)
	arch := &memArchiver{}
	return NewProducer(cfg, seq, gate, arch, logsink.NewNop()), arch
}

func TestProducerRunsJobToDone(t *testing.T) {
	p, arch := newTestProducer(t, &stubVisuals{})

	var doneJobs []*types.ProductionJob
	var mu sync.Mutex
	p.OnDone = func(job *types.ProductionJob) {
		mu.Lock()
		doneJobs = append(doneJobs, job)
		mu.Unlock()
	}

	id, err := p.Start(context.Background(), types.Channel{Name: "CKLegends", Topic: "History"}, types.KindShort)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Wait()

	job, err := p.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != types.StatusDone {
		t.Fatalf("job status = %s (%s), want done", job.Status, job.Error)
	}
	if job.Rendered == nil {
		t.Error("done job has no rendered video")
	}

	archived := arch.list()
	if len(archived) != 1 || archived[0].ID != id {
		t.Errorf("archived %d job(s), want exactly the finished one", len(archived))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(doneJobs) != 1 {
		t.Errorf("OnDone fired %d times, want 1", len(doneJobs))
	}
}

func TestProducerIsolatesFailingJob(t *testing.T) {
	// Visuals fail only for the Finance channel; the History job must
	// finish untouched.
	p, arch := newTestProducer(t, &stubVisuals{failFor: "Finance"})

	goodID, err := p.Start(context.Background(), types.Channel{Name: "CKLegends", Topic: "History"}, types.KindShort)
	if err != nil {
		t.Fatalf("Start good: %v", err)
	}
	badID, err := p.Start(context.Background(), types.Channel{Name: "CKFinanceCore", Topic: "Finance"}, types.KindShort)
	if err != nil {
		t.Fatalf("Start bad: %v", err)
	}
	p.Wait()

	good, _ := p.Status(goodID)
	if good.Status != types.StatusDone {
		t.Errorf("good job status = %s (%s), want done", good.Status, good.Error)
	}

	bad, _ := p.Status(badID)
	if bad.Status != types.StatusFailed {
		t.Errorf("bad job status = %s, want failed", bad.Status)
	}
	if bad.Step != types.StepVisuals {
		t.Errorf("bad job failed at %s, want visuals", bad.Step)
	}

	if got := len(arch.list()); got != 2 {
		t.Errorf("archived %d job(s), want both terminal jobs", got)
	}

	counts := p.Counts()
	if counts[types.StatusDone] != 1 || counts[types.StatusFailed] != 1 {
		t.Errorf("counts = %v, want 1 done and 1 failed", counts)
	}
}

func TestProducerStopMarksJobFailed(t *testing.T) {
	// A visuals stage that blocks until cancelled holds the job mid-run.
	block := &blockingVisuals{started: make(chan struct{}, 1)}
	cfg := pipelineConfig()
	stages := stubStages(&stubVisuals{})
	stages.Visuals = block
	seq := NewSequencer(cfg, stages, logsink.NewNop())
	gate := monitor.NewGate(idleSampler{}, 80, 90, time.Millisecond)
	arch := &memArchiver{}
	p := NewProducer(cfg, seq, gate, arch, logsink.NewNop())

	id, err := p.Start(context.Background(), types.Channel{Name: "CKLegends", Topic: "History"}, types.KindLong)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-block.started
	if err := p.Stop(id); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	p.Wait()

	job, err := p.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != types.StatusFailed {
		t.Errorf("stopped job status = %s, want failed", job.Status)
	}
	if job.Error != "stopped before completion" {
		t.Errorf("stopped job error = %q", job.Error)
	}
}

func TestProducerStopUnknownJob(t *testing.T) {
	p, _ := newTestProducer(t, &stubVisuals{})
	if err := p.Stop("no-such-id"); err == nil {
		t.Error("Stop on an unknown id must error")
	}
}

func TestRunDailyProducesQuota(t *testing.T) {
	p, arch := newTestProducer(t, &stubVisuals{})

	if err := p.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily: %v", err)
	}

	// 1 channel x (1 long + 1 short).
	jobs := p.List()
	if len(jobs) != 2 {
		t.Fatalf("daily run created %d jobs, want 2", len(jobs))
	}
	kinds := map[types.VideoKind]int{}
	for _, j := range jobs {
		if j.Status != types.StatusDone {
			t.Errorf("job %s status = %s, want done", j.ID, j.Status)
		}
		kinds[j.Kind]++
	}
	if kinds[types.KindLong] != 1 || kinds[types.KindShort] != 1 {
		t.Errorf("kinds = %v, want 1 long and 1 short", kinds)
	}
	if got := len(arch.list()); got != 2 {
		t.Errorf("archived %d job(s), want 2", got)
	}
}

// pressureSampler reads a shared flag: raised means over every ceiling.
type pressureSampler struct{ over *atomic.Bool }

func (s pressureSampler) Sample() (monitor.Usage, error) {
	if s.over.Load() {
		return monitor.Usage{RAMPercent: 95, CPUPercent: 95}, nil
	}
	return monitor.Usage{RAMPercent: 10, CPUPercent: 10}, nil
}

// pressureVoiceover raises the pressure flag once narration is delivered,
// so the worker hits a closed gate before its next step.
type pressureVoiceover struct {
	inner stubVoiceover
	over  *atomic.Bool
}

func (v pressureVoiceover) Generate(ctx context.Context, s *types.Script) (*types.Asset, error) {
	asset, err := v.inner.Generate(ctx, s)
	v.over.Store(true)
	return asset, err
}

func newPressuredProducer(t *testing.T, over *atomic.Bool) *Producer {
	t.Helper()
	cfg := pipelineConfig()
	stages := stubStages(&stubVisuals{})
	stages.Voiceover = pressureVoiceover{over: over}
	seq := NewSequencer(cfg, stages, logsink.NewNop())
	gate := monitor.NewGate(pressureSampler{over: over}, 80, 90, time.Millisecond)
	return NewProducer(cfg, seq, gate, &memArchiver{}, logsink.NewNop())
}

func awaitPaused(t *testing.T, p *Producer, id string) *types.ProductionJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := p.Status(id)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if job.Status == types.StatusPaused {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never paused under pressure (status %s)", job.Status)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestProducerPausesAndResumesOnSameStep(t *testing.T) {
	var over atomic.Bool
	p := newPressuredProducer(t, &over)

	id, err := p.Start(context.Background(), types.Channel{Name: "CKLegends", Topic: "History"}, types.KindShort)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	paused := awaitPaused(t, p, id)
	if paused.Step != types.StepVisuals {
		t.Errorf("paused at step %s, want visuals (the step after the pressure spike)", paused.Step)
	}
	if paused.Voiceover == nil {
		t.Error("pause lost the voiceover artifact")
	}

	over.Store(false)
	p.Wait()

	job, err := p.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != types.StatusDone {
		t.Fatalf("resumed job status = %s (%s), want done", job.Status, job.Error)
	}
	if job.Rendered == nil {
		t.Error("resumed job has no rendered video")
	}
	if job.Voiceover == nil || job.Timeline == "" {
		t.Error("artifacts from before the pause were lost")
	}
}

func TestProducerStopWhilePausedMarksJobFailed(t *testing.T) {
	var over atomic.Bool
	p := newPressuredProducer(t, &over)

	id, err := p.Start(context.Background(), types.Channel{Name: "CKLegends", Topic: "History"}, types.KindShort)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	awaitPaused(t, p, id)
	if err := p.Stop(id); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	p.Wait()

	job, err := p.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != types.StatusFailed {
		t.Errorf("stopped-while-paused job status = %s, want failed", job.Status)
	}
	if job.Error != "stopped before completion" {
		t.Errorf("stopped job error = %q", job.Error)
	}
}

// blockingVisuals parks until its context is cancelled.
type blockingVisuals struct {
	started chan struct{}
}

func (b *blockingVisuals) Generate(ctx context.Context, _ *types.VideoIdea, _ types.VideoKind) ([]*types.Asset, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}
