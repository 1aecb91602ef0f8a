// Package audience estimates how an audience would receive a piece of
// narration. It is a deterministic heuristic stand-in for a learned model:
// good enough to steer the quality loop and to produce the feedback score
// recorded at the end of every job.
package audience

import (
	"strings"

	"auto-video-pipeline/types"
)

// hookWords raise engagement when they appear early in the text.
var hookWords = []string{
	"secret", "hidden", "shocking", "revealed", "truth", "mystery",
	"never", "nobody", "forbidden", "lost", "untold", "discover",
}

// Simulator scores narration text on a 1-10 scale.
type Simulator struct {
	wordsPerMinute int
}

// New creates a Simulator. wordsPerMinute is the narration pace used to
// judge duration fit.
func New(wordsPerMinute int) *Simulator {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 130
	}
	return &Simulator{wordsPerMinute: wordsPerMinute}
}

// Score rates text for a given video kind. The result is deterministic for
// identical input.
func (s *Simulator) Score(text string, kind types.VideoKind) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 1.0
	}

	score := 5.0

	// Hook density in the first 40 words.
	head := words
	if len(head) > 40 {
		head = head[:40]
	}
	headText := strings.ToLower(strings.Join(head, " "))
	for _, hw := range hookWords {
		if strings.Contains(headText, hw) {
			score += 0.6
		}
	}

	// Vocabulary variety: distinct words / total words.
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[strings.ToLower(strings.Trim(w, ".,!?;:\"'"))] = struct{}{}
	}
	variety := float64(len(distinct)) / float64(len(words))
	switch {
	case variety > 0.6:
		score += 1.5
	case variety > 0.4:
		score += 0.8
	case variety < 0.2:
		score -= 1.0
	}

	// Duration fit: shorts want under a minute of narration, long videos
	// want several minutes.
	minutes := float64(len(words)) / float64(s.wordsPerMinute)
	if kind == types.KindShort {
		if minutes <= 1.0 {
			score += 1.0
		} else {
			score -= (minutes - 1.0) * 2.0
		}
	} else {
		if minutes >= 5.0 {
			score += 1.0
		} else {
			score -= (5.0 - minutes) * 0.3
		}
	}

	// Questions drive comments.
	if strings.Contains(text, "?") {
		score += 0.5
	}

	if score < 1.0 {
		score = 1.0
	}
	if score > 10.0 {
		score = 10.0
	}
	return score
}
