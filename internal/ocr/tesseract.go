package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractBackend runs OCR through the local Tesseract installation.
// Tesseract reports per-word confidence on a 0-100 scale and min/max corner
// boxes; the adapter normalizes both.
type TesseractBackend struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractBackend creates a Tesseract-backed OCR engine.
func NewTesseractBackend() *TesseractBackend {
	return &TesseractBackend{clientFactory: gosseract.NewClient}
}

// Engine returns the engine id.
func (t *TesseractBackend) Engine() Engine {
	return EngineTesseract
}

// Recognize performs OCR on a single page image.
func (t *TesseractBackend) Recognize(ctx context.Context, img PageImage, language string) (*RawOutput, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client := t.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(img.Data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("set language %q: %w", language, err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	out := &RawOutput{Text: text, Scale: ScalePercent}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Text extraction succeeded; word geometry is best effort.
		return out, nil
	}
	for _, b := range boxes {
		out.Words = append(out.Words, RawWord{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box: RawBox{
				Kind: BoxTwoPoint,
				Points: []Point{
					{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y)},
					{X: float64(b.Box.Max.X), Y: float64(b.Box.Max.Y)},
				},
			},
		})
	}
	return out, nil
}

// probe reports whether a usable Tesseract installation exists.
func (t *TesseractBackend) probe() bool {
	defer func() {
		// gosseract aborts loudly when the native library is missing.
		_ = recover()
	}()
	client := t.clientFactory()
	defer client.Close()
	langs, err := gosseract.GetAvailableLanguages()
	return err == nil && len(langs) > 0
}
