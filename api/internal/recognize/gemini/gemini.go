// Package gemini adapts the Gemini vision API to the recognition contract:
// the model is asked for text spans with pixel bounding boxes as strict JSON.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"homework-check/api/internal/imageproc"
	"homework-check/api/internal/region"
	"homework-check/api/internal/util"
)

type Adapter struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Adapter {
	return &Adapter{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (a *Adapter) Name() string { return "gemini" }

const system = `You are an OCR module for photographed school worksheets.
Extract every visible text span VERBATIM: question numbers, formulas, answer
choices, handwritten answers. Do not solve, translate or normalize anything.
Return STRICT JSON only, an array of objects:
[{"text": string, "box": {"x1": number, "y1": number, "x2": number, "y2": number}, "confidence": number}]
Coordinates are pixels with origin top-left, x1<x2, y1<y2; confidence is 0..1.
Any text outside the JSON array is an error.`

func (a *Adapter) Extract(ctx context.Context, img []byte, preprocess bool) ([]region.TextRegion, error) {
	if a.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}

	if preprocess {
		if enhanced, err := imageproc.Preprocess(img); err == nil {
			img = enhanced
		}
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(a.APIKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(a.Model)
	if m == nil {
		return nil, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	parts := []genai.Part{
		genai.Text("Extract all text spans. JSON array only."),
		&genai.Blob{MIMEType: util.SniffMimeHTTP(img), Data: img},
	}

	// Retries for transient 5xx failures.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return nil, fmt.Errorf("gemini extract: empty response")
		}
		txt = util.StripCodeFences(strings.TrimSpace(txt))
		return a.decodeRegions(txt)
	}
	return nil, lastErr
}

type spanJSON struct {
	Text string `json:"text"`
	Box  struct {
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
		X2 float64 `json:"x2"`
		Y2 float64 `json:"y2"`
	} `json:"box"`
	Confidence float64 `json:"confidence"`
}

func (a *Adapter) decodeRegions(txt string) ([]region.TextRegion, error) {
	var spans []spanJSON
	if err := json.Unmarshal([]byte(txt), &spans); err != nil {
		return nil, fmt.Errorf("gemini extract: bad JSON: %w", err)
	}
	regs := make([]region.TextRegion, 0, len(spans))
	for _, s := range spans {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		box := region.Rect{X1: s.Box.X1, Y1: s.Box.Y1, X2: s.Box.X2, Y2: s.Box.Y2}
		if !box.Valid() {
			continue // model occasionally returns degenerate boxes
		}
		conf := s.Confidence
		if conf <= 0 || conf > 1 {
			conf = 0.5
		}
		regs = append(regs, region.TextRegion{
			Text:       s.Text,
			Box:        box,
			Confidence: conf,
			Source:     a.Name(),
		})
	}
	return regs, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
