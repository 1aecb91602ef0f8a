package types

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusRunning, StatusPaused, true},
		{StatusPaused, StatusRunning, true},
		{StatusRunning, StatusDone, true},
		{StatusRunning, StatusFailed, true},
		// A stop can fail a job before it runs or while it is parked.
		{StatusPending, StatusFailed, true},
		{StatusPaused, StatusFailed, true},

		{StatusPending, StatusPaused, false},
		{StatusPending, StatusDone, false},
		{StatusPaused, StatusDone, false},
		{StatusDone, StatusRunning, false},
		{StatusFailed, StatusRunning, false},
		{StatusDone, StatusFailed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []JobStatus{StatusPending, StatusRunning, StatusPaused} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusDone, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestStepString(t *testing.T) {
	if got := StepSetupCheck.String(); got != "setup-check" {
		t.Errorf("StepSetupCheck.String() = %q", got)
	}
	if got := StepFeedback.String(); got != "feedback" {
		t.Errorf("StepFeedback.String() = %q", got)
	}
	if got := StepCount.String(); got != "done" {
		t.Errorf("StepCount.String() = %q", got)
	}
}

func TestNewProductionJob(t *testing.T) {
	job := NewProductionJob("abc123", Channel{Name: "CKLegends", Topic: "History"}, KindShort)
	if job.Status != StatusPending {
		t.Errorf("new job status = %s, want pending", job.Status)
	}
	if job.Step != StepSetupCheck {
		t.Errorf("new job step = %s, want setup-check", job.Step)
	}
	if job.CreatedAt.IsZero() {
		t.Error("new job has zero CreatedAt")
	}
}
