package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Backend is a single OCR engine. Implementations return their native result
// shape; normalization is the adapter's job. A backend that fails returns an
// error, optionally alongside whatever partial output it recovered.
type Backend interface {
	Engine() Engine
	Recognize(ctx context.Context, img PageImage, language string) (*RawOutput, error)
}

// Adapter invokes one named backend per call and normalizes its output into
// the common Result shape. Backend failures are absorbed, never propagated.
type Adapter struct {
	backends map[Engine]Backend
	log      *logrus.Entry
}

// NewAdapter creates an adapter over the given backends.
func NewAdapter(backends ...Backend) *Adapter {
	m := make(map[Engine]Backend, len(backends))
	for _, b := range backends {
		m[b.Engine()] = b
	}
	return &Adapter{
		backends: m,
		log:      logrus.WithField("component", "ocr"),
	}
}

// Extract runs exactly one backend against one page image. The returned
// Result always carries the requested engine id; on failure Success is false
// and Error holds the cause.
func (a *Adapter) Extract(ctx context.Context, img PageImage, engine Engine, language string) Result {
	result := Result{EngineUsed: engine}

	backend, ok := a.backends[engine]
	if !ok {
		result.Error = fmt.Sprintf("engine %s is not registered", engine)
		return result
	}

	raw, err := a.recognize(ctx, backend, img, language)
	if err != nil {
		a.log.WithError(err).WithField("engine", engine).Error("OCR extraction failed")
		result.Error = err.Error()
		if raw != nil && len(raw.Words) > 0 {
			// Salvage partial output: confidence reflects only those words.
			result.Words, result.Confidence = a.normalizeWords(raw)
			result.Text = wordText(raw)
		}
		return result
	}

	result.Success = true
	if raw == nil {
		return result
	}

	result.Words, result.Confidence = a.normalizeWords(raw)
	result.Text = raw.Text
	if result.Text == "" {
		result.Text = wordText(raw)
	}
	return result
}

// recognize shields the adapter from a panicking backend.
func (a *Adapter) recognize(ctx context.Context, backend Backend, img PageImage, language string) (raw *RawOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("backend panicked: %v", r)
		}
	}()
	return backend.Recognize(ctx, img, language)
}

// normalizeWords converts native confidences to [0,1] and native boxes to
// top-left/width/height pixel geometry. The aggregate confidence is the
// arithmetic mean over non-empty words; no words means 0.0, not an error.
func (a *Adapter) normalizeWords(raw *RawOutput) ([]Word, float64) {
	words := make([]Word, 0, len(raw.Words))
	var sum float64
	for _, rw := range raw.Words {
		if strings.TrimSpace(rw.Text) == "" {
			continue
		}
		conf := normalizeConfidence(rw.Confidence, raw.Scale)
		sum += conf
		words = append(words, Word{
			Text:       rw.Text,
			Confidence: conf,
			Box:        normalizeBox(rw.Box),
		})
	}
	if len(words) == 0 {
		return words, 0.0
	}
	return words, sum / float64(len(words))
}

// normalizeConfidence converts a native confidence value to [0,1].
func normalizeConfidence(value float64, scale ConfidenceScale) float64 {
	if scale == ScalePercent {
		value /= 100.0
	}
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// normalizeBox converts any native box geometry to {x, y, width, height}.
func normalizeBox(box RawBox) BoundingBox {
	switch box.Kind {
	case BoxTopLeft:
		if len(box.Points) == 0 {
			return BoundingBox{Width: box.Width, Height: box.Height}
		}
		return BoundingBox{
			X:      box.Points[0].X,
			Y:      box.Points[0].Y,
			Width:  box.Width,
			Height: box.Height,
		}
	case BoxTwoPoint:
		if len(box.Points) < 2 {
			return BoundingBox{}
		}
		return BoundingBox{
			X:      box.Points[0].X,
			Y:      box.Points[0].Y,
			Width:  box.Points[1].X - box.Points[0].X,
			Height: box.Points[1].Y - box.Points[0].Y,
		}
	case BoxQuad:
		if len(box.Points) < 4 {
			return BoundingBox{}
		}
		// Top-left corner and the diagonally opposite bottom-right corner.
		return BoundingBox{
			X:      box.Points[0].X,
			Y:      box.Points[0].Y,
			Width:  box.Points[2].X - box.Points[0].X,
			Height: box.Points[2].Y - box.Points[0].Y,
		}
	default:
		return BoundingBox{}
	}
}

// wordText joins backend words when the backend reports no full-page text.
func wordText(raw *RawOutput) string {
	parts := make([]string, 0, len(raw.Words))
	for _, w := range raw.Words {
		if strings.TrimSpace(w.Text) != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}
