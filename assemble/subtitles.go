package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"auto-video-pipeline/types"
)

// Subtitles builds one SRT per configured language, translating the script
// text for every language other than the source. A failed translation is
// logged and that language skipped — it never fails the step. Results land
// on job.SubtitleTracks.
func (a *Assembler) Subtitles(ctx context.Context, job *types.ProductionJob) error {
	if job.Script == nil {
		return fmt.Errorf("%w: job %s has no script", ErrAssetMissing, job.ID)
	}

	dir := filepath.Join(a.jobDir(job), "subtitles")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	text := job.Script.FullText()
	total := a.narrationSeconds(job)
	source := a.cfg.Assemble.SourceLanguage

	tracks := make(map[string]string, len(a.cfg.Assemble.Languages))
	for _, lang := range a.cfg.Assemble.Languages {
		langText := text
		if lang != source {
			translated, err := a.translator.Translate(ctx, text, source, lang)
			if err != nil {
				a.log.Printf("[subtitles] ⚠️  translation to %q failed: %v — skipping language", lang, err)
				continue
			}
			langText = translated
		}

		srtFile := filepath.Join(dir, fmt.Sprintf("subtitles_%s.srt", lang))
		srt := BuildSRT(langText, total, a.cfg.Assemble.MaxCharsPerLine)
		if err := os.WriteFile(srtFile, []byte(srt), 0644); err != nil {
			return fmt.Errorf("write %s subtitles: %w", lang, err)
		}
		tracks[lang] = srtFile
		a.log.Printf("[subtitles] %s track written: %s", lang, filepath.Base(srtFile))
	}

	job.SubtitleTracks = tracks
	a.log.Printf("[subtitles] ✅ %d/%d language track(s) ready", len(tracks), len(a.cfg.Assemble.Languages))
	return nil
}

// BuildSRT splits text into cue-sized lines and distributes them evenly
// across the narration duration.
func BuildSRT(text string, totalSec float64, maxCharsPerLine int) string {
	cues := splitCues(text, maxCharsPerLine)
	if len(cues) == 0 {
		return ""
	}
	if totalSec <= 0 {
		totalSec = float64(len(cues)) * 3.0
	}
	perCue := totalSec / float64(len(cues))

	var sb strings.Builder
	for i, cue := range cues {
		start := float64(i) * perCue
		end := start + perCue
		sb.WriteString(fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(start), srtTimestamp(end), cue))
	}
	return sb.String()
}

// splitCues breaks text into subtitle cues that fit the line budget,
// splitting on sentence ends first and whitespace second.
func splitCues(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 42
	}
	words := strings.Fields(text)
	var cues []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			cues = append(cues, strings.Join(current, " "))
			current, currentLen = nil, 0
		}
	}

	for _, w := range words {
		if currentLen+len(w)+1 > maxChars*2 { // two display lines per cue
			flush()
		}
		current = append(current, w)
		currentLen += len(w) + 1
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
			flush()
		}
	}
	flush()
	return cues
}

func srtTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := int(sec) % 60
	ms := int((sec - float64(int(sec))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
