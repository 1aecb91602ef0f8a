package types

// JobStatus is the lifecycle state of a ProductionJob.
type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusRunning JobStatus = "running"
	StatusPaused  JobStatus = "paused"
	StatusFailed  JobStatus = "failed"
	StatusDone    JobStatus = "done"
)

// allowedTransitions encodes pending → running ⇄ paused → running → done.
// failed is reachable from every non-terminal status: exhausted retries
// fail a running job, an operator stop fails a pending or paused one.
var allowedTransitions = map[JobStatus][]JobStatus{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusPaused, StatusDone, StatusFailed},
	StatusPaused:  {StatusRunning, StatusFailed},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to JobStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusFailed || s == StatusDone
}

// Step is an index into the fixed production step sequence.
type Step int

const (
	StepSetupCheck Step = iota
	StepIdea
	StepScript
	StepVoiceover
	StepVisuals
	StepMusic
	StepEdit
	StepSubtitles
	StepRender
	StepFeedback

	// StepCount bounds Step; a job with Step == StepCount has finished
	// every step.
	StepCount
)

var stepNames = [...]string{
	"setup-check",
	"idea",
	"script",
	"voiceover",
	"visuals",
	"music",
	"edit",
	"subtitles",
	"render",
	"feedback",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "done"
	}
	return stepNames[s]
}
