package music

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Library picks background tracks from a local music directory using a
// tags.json sidecar (filename → tags). Tracks never repeat within a run.
type Library struct {
	dir       string
	tags      map[string][]string
	usedInRun map[string]bool
}

// NewLibrary loads the tags file. A missing tags file yields an empty
// library, which simply pushes every pick to the next tier.
func NewLibrary(dir, tagsFile string) (*Library, error) {
	tags, err := loadTagsJSON(tagsFile)
	if err != nil {
		return nil, fmt.Errorf("load music tags: %w", err)
	}
	return &Library{
		dir:       dir,
		tags:      tags,
		usedInRun: make(map[string]bool),
	}, nil
}

// Pick selects the best tag match for a topic that hasn't been used yet
// this run.
func (l *Library) Pick(topic string) (string, error) {
	if len(l.tags) == 0 {
		return "", fmt.Errorf("no music tracks found in %s", l.dir)
	}

	type scored struct {
		file  string
		score int
	}
	var candidates []scored

	want := strings.Fields(strings.ToLower(topic))
	for file, trackTags := range l.tags {
		if l.usedInRun[file] {
			continue
		}
		candidates = append(candidates, scored{file, matchScore(want, trackTags)})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("all %d track(s) already used this run", len(l.tags))
	}

	// Sort by score descending, then pick randomly from the top three so
	// the same track doesn't open every video.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	topN := 3
	if len(candidates) < topN {
		topN = len(candidates)
	}
	pick := candidates[rand.Intn(topN)]

	l.usedInRun[pick.file] = true
	return filepath.Join(l.dir, pick.file), nil
}

func matchScore(want []string, trackTags []string) int {
	tagSet := make(map[string]bool, len(trackTags))
	for _, t := range trackTags {
		tagSet[strings.ToLower(t)] = true
	}
	score := 0
	for _, w := range want {
		if tagSet[w] {
			score += 10
		}
	}
	return score
}

func loadTagsJSON(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]string), nil
		}
		return nil, err
	}

	// The tags file may carry _instructions style keys — skip those.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	result := make(map[string][]string)
	for k, v := range raw {
		if strings.HasPrefix(k, "_") {
			continue
		}
		var tags []string
		if err := json.Unmarshal(v, &tags); err != nil {
			continue
		}
		result[k] = tags
	}
	return result, nil
}
