// Package music supplies the background bed for a video: a tag-matched
// track from the local library when one exists, otherwise a generated
// ambient tone so the mix never goes without.
package music

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

// Generator picks or synthesizes one music track per job.
type Generator struct {
	library *Library // optional
	dir     string
	log     *logsink.Logger
}

// New creates a Generator writing synthesized beds into assetsDir/music.
// library may be nil.
func New(library *Library, assetsDir string, log *logsink.Logger) *Generator {
	return &Generator{
		library: library,
		dir:     filepath.Join(assetsDir, "music"),
		log:     log,
	}
}

// Generate returns a music asset for the topic, long enough to underlay
// durationSec of narration. Never returns empty: the tone synthesizer is
// the terminal fallback.
func (g *Generator) Generate(ctx context.Context, topic string, durationSec float64) (*types.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if g.library != nil {
		path, err := g.library.Pick(topic)
		if err == nil {
			g.log.Printf("[music] ✅ library track picked: %s", filepath.Base(path))
			return &types.Asset{Path: path, Kind: types.AssetMusic, Source: types.SourcePrimary}, nil
		}
		g.log.Printf("[music] ⚠️  library pick failed: %v — synthesizing ambient bed", err)
	}

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return nil, fmt.Errorf("music: create dir: %w", err)
	}
	if durationSec <= 0 {
		durationSec = 60
	}

	outFile := filepath.Join(g.dir, types.UniqueName(types.AssetMusic, ".wav"))
	if err := writeAmbientWAV(outFile, durationSec); err != nil {
		return nil, fmt.Errorf("music: synthesize bed: %w", err)
	}
	g.log.Printf("[music] ✅ ambient bed synthesized (%.0fs): %s", durationSec, filepath.Base(outFile))
	return &types.Asset{Path: outFile, Kind: types.AssetMusic, Source: types.SourceFallback}, nil
}

const (
	bedSampleRate = 22050
	bedBits       = 16
)

// writeAmbientWAV renders a quiet two-tone drone as 16-bit mono PCM.
func writeAmbientWAV(path string, seconds float64) error {
	samples := int(seconds * bedSampleRate)
	dataSize := samples * bedBits / 8

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
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1)
	header = binary.LittleEndian.AppendUint16(header, 1)
	header = binary.LittleEndian.AppendUint32(header, bedSampleRate)
	header = binary.LittleEndian.AppendUint32(header, bedSampleRate*bedBits/8)
	header = binary.LittleEndian.AppendUint16(header, bedBits/8)
	header = binary.LittleEndian.AppendUint16(header, bedBits)
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataSize))
	if _, err := f.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 0, 64*1024)
	for i := 0; i < samples; i++ {
		t := float64(i) / bedSampleRate
		// Low drone plus a slow fifth above it, gently amplitude-modulated.
		v := 0.12*math.Sin(2*math.Pi*110*t) + 0.08*math.Sin(2*math.Pi*165*t)
		v *= 0.8 + 0.2*math.Sin(2*math.Pi*0.1*t)
		sample := int16(v * math.MaxInt16)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(sample))
		if len(buf) >= 64*1024 {
			if _, err := f.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
