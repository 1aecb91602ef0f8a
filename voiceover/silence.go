package voiceover

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"auto-video-pipeline/types"
)

// SilenceEngine is the terminal fallback: it writes a silent WAV sized to
// the narration length at the configured reading pace. The video is still
// cut to a realistic duration even when no TTS engine is installed.
type SilenceEngine struct {
	WordsPerMinute int
}

func (e *SilenceEngine) Name() string { return "silence" }

const (
	sampleRate    = 22050
	bitsPerSample = 16
)

func (e *SilenceEngine) Synthesize(_ context.Context, text, dir string) (string, error) {
	wpm := e.WordsPerMinute
	if wpm <= 0 {
		wpm = 130
	}
	words := len(strings.Fields(text))
	seconds := float64(words) / float64(wpm) * 60.0
	if seconds < 1 {
		seconds = 1
	}

	outFile := filepath.Join(dir, types.UniqueName(types.AssetVoiceover, ".wav"))
	if err := writeSilentWAV(outFile, seconds); err != nil {
		return "", err
	}
	return outFile, nil
}

// writeSilentWAV emits a valid 16-bit mono PCM WAV of zeroed samples.
func writeSilentWAV(path string, seconds float64) error {
	samples := int(seconds * sampleRate)
	dataSize := samples * bitsPerSample / 8

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, 0, 44)
	header = append(header, []byte("RIFF")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataSize))
	header = append(header, []byte("WAVE")...)
	header = append(header, []byte("fmt ")...)
	header = binary.LittleEndian.AppendUint32(header, 16) // PCM chunk size
	header = binary.LittleEndian.AppendUint16(header, 1)  // PCM format
	header = binary.LittleEndian.AppendUint16(header, 1)  // mono
	header = binary.LittleEndian.AppendUint32(header, sampleRate)
	header = binary.LittleEndian.AppendUint32(header, sampleRate*bitsPerSample/8)
	header = binary.LittleEndian.AppendUint16(header, bitsPerSample/8)
	header = binary.LittleEndian.AppendUint16(header, bitsPerSample)
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataSize))

	if _, err := f.Write(header); err != nil {
		return err
	}

	// Zeroed samples, written in chunks.
	chunk := make([]byte, 32*1024)
	for written := 0; written < dataSize; {
		n := len(chunk)
		if dataSize-written < n {
			n = dataSize - written
		}
		if _, err := f.Write(chunk[:n]); err != nil {
			return err
		}
		written += n
	}
	return nil
}
