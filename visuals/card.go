package visuals

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"auto-video-pipeline/types"
)

// CardSource is the terminal fallback: it renders a dark gradient card in
// pure Go, so a visual slot can always be filled without any external
// service or binary.
type CardSource struct {
	Width  int
	Height int
}

func (s *CardSource) Name() string { return "generated-card" }

func (s *CardSource) Fetch(_ context.Context, prompt, dir string, seed int) (string, error) {
	w, h := s.Width, s.Height
	if w <= 0 || h <= 0 {
		w, h = 1920, 1080
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// Vertical gradient with a hue nudged by the seed so consecutive
	// fallback frames are distinguishable.
	baseR := uint8(10 + (seed*13)%30)
	baseB := uint8(30 + (seed*7)%40)
	for y := 0; y < h; y++ {
		depth := float64(y) / float64(h)
		c := color.RGBA{
			R: uint8(float64(baseR) * (1 - depth*0.7)),
			G: uint8(12 * (1 - depth*0.5)),
			B: uint8(float64(baseB) * (1 - depth*0.6)),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	// Simple vignette: darken toward the corners.
	cx, cy := w/2, h/2
	maxDist := float64(cx*cx + cy*cy)
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x += 2 {
			dx, dy := x-cx, y-cy
			fade := 1.0 - 0.5*float64(dx*dx+dy*dy)/maxDist
			c := img.RGBAAt(x, y)
			c.R = uint8(float64(c.R) * fade)
			c.G = uint8(float64(c.G) * fade)
			c.B = uint8(float64(c.B) * fade)
			img.SetRGBA(x, y, c)
		}
	}

	outFile := filepath.Join(dir, types.UniqueName(types.AssetVisual, ".png"))
	f, err := os.Create(outFile)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return outFile, nil
}
