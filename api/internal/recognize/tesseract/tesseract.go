// Package tesseract adapts a local Tesseract install to the recognition
// contract via gosseract.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"homework-check/api/internal/imageproc"
	"homework-check/api/internal/region"
)

type Adapter struct {
	Languages     []string
	clientFactory func() *gosseract.Client
}

// New builds a Tesseract adapter. langs defaults to chi_sim+eng, which covers
// mixed Chinese worksheets with latin choice letters.
func New(langs ...string) *Adapter {
	if len(langs) == 0 {
		langs = []string{"chi_sim", "eng"}
	}
	return &Adapter{Languages: langs, clientFactory: gosseract.NewClient}
}

func (a *Adapter) Name() string { return "tesseract" }

func (a *Adapter) Extract(ctx context.Context, img []byte, preprocess bool) ([]region.TextRegion, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if preprocess {
		enhanced, err := imageproc.Preprocess(img)
		if err == nil {
			img = enhanced
		}
		// A broken decode falls back to the raw bytes; Tesseract gets its
		// own chance at them.
	}

	c := a.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("tesseract set image: %w", err)
	}
	if err := c.SetLanguage(a.Languages...); err != nil {
		return nil, fmt.Errorf("tesseract set languages: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract bounding boxes: %w", err)
	}

	regs := make([]region.TextRegion, 0, len(boxes))
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		regs = append(regs, region.TextRegion{
			Text: b.Word,
			Box: region.Rect{
				X1: float64(b.Box.Min.X),
				Y1: float64(b.Box.Min.Y),
				X2: float64(b.Box.Max.X),
				Y2: float64(b.Box.Max.Y),
			},
			Confidence: b.Confidence / 100.0,
			Source:     a.Name(),
		})
	}
	return regs, nil
}
