package audience

import (
	"strings"
	"testing"

	"auto-video-pipeline/types"
)

func TestScoreDeterministic(t *testing.T) {
	s := New(130)
	text := "The hidden truth about ancient Rome. Nobody expected what the builders left behind. What would you have done?"
	a := s.Score(text, types.KindShort)
	b := s.Score(text, types.KindShort)
	if a != b {
		t.Fatalf("same input scored %f then %f", a, b)
	}
}

func TestScoreBounds(t *testing.T) {
	s := New(130)
	tests := []struct {
		name string
		text string
		kind types.VideoKind
	}{
		{"empty", "", types.KindShort},
		{"one word", "hello", types.KindLong},
		{"repeated", strings.Repeat("spam ", 3000), types.KindShort},
		{"hooks", "secret hidden shocking revealed truth mystery never nobody", types.KindShort},
	}
	for _, tt := range tests {
		got := s.Score(tt.text, tt.kind)
		if got < 1.0 || got > 10.0 {
			t.Errorf("%s: score %f out of the 1-10 range", tt.name, got)
		}
	}
}

func TestScoreRewardsHooks(t *testing.T) {
	s := New(130)
	flat := "Today we talk about a topic. It is a topic many people discuss online every day."
	hooked := "The hidden secret nobody revealed until now. The truth behind the mystery will surprise you?"
	if s.Score(hooked, types.KindShort) <= s.Score(flat, types.KindShort) {
		t.Error("hook-heavy opening should outscore a flat one")
	}
}
