package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// visionWordConfidence is the fixed per-word confidence assigned to Google
// Vision results. The API does not report word-level confidence for plain
// text detection, so this is an explicit placeholder, not a computed signal.
const visionWordConfidence = 0.95

const defaultVisionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// GoogleVisionBackend runs OCR through the Cloud Vision images:annotate REST
// endpoint. Vision reports four-point bounding polygons; the adapter
// normalizes them.
type GoogleVisionBackend struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewGoogleVisionBackend creates a Cloud Vision backed OCR engine.
func NewGoogleVisionBackend(apiKey string) *GoogleVisionBackend {
	return &GoogleVisionBackend{
		apiKey:   apiKey,
		endpoint: defaultVisionEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Engine returns the engine id.
func (g *GoogleVisionBackend) Engine() Engine {
	return EngineGoogleVision
}

type visionRequest struct {
	Requests []struct {
		Image struct {
			Content string `json:"content"`
		} `json:"image"`
		Features []struct {
			Type string `json:"type"`
		} `json:"features"`
	} `json:"requests"`
}

type visionResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description  string `json:"description"`
			BoundingPoly struct {
				Vertices []struct {
					X float64 `json:"x"`
					Y float64 `json:"y"`
				} `json:"vertices"`
			} `json:"boundingPoly"`
		} `json:"textAnnotations"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Recognize performs text detection on a single page image.
func (g *GoogleVisionBackend) Recognize(ctx context.Context, img PageImage, _ string) (*RawOutput, error) {
	var reqBody visionRequest
	reqBody.Requests = make([]struct {
		Image struct {
			Content string `json:"content"`
		} `json:"image"`
		Features []struct {
			Type string `json:"type"`
		} `json:"features"`
	}, 1)
	reqBody.Requests[0].Image.Content = base64.StdEncoding.EncodeToString(img.Data)
	reqBody.Requests[0].Features = []struct {
		Type string `json:"type"`
	}{{Type: "TEXT_DETECTION"}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"?key="+g.apiKey, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API returned status %d", resp.StatusCode)
	}

	var parsed visionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	if len(parsed.Responses) == 0 {
		return &RawOutput{Scale: ScaleUnit}, nil
	}
	annotated := parsed.Responses[0]
	if annotated.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", annotated.Error.Message)
	}
	if len(annotated.TextAnnotations) == 0 {
		return &RawOutput{Scale: ScaleUnit}, nil
	}

	// The first annotation is the full page text; the rest are words.
	out := &RawOutput{
		Text:  annotated.TextAnnotations[0].Description,
		Scale: ScaleUnit,
	}
	for _, ann := range annotated.TextAnnotations[1:] {
		box := RawBox{Kind: BoxQuad}
		for _, v := range ann.BoundingPoly.Vertices {
			box.Points = append(box.Points, Point{X: v.X, Y: v.Y})
		}
		out.Words = append(out.Words, RawWord{
			Text:       ann.Description,
			Confidence: visionWordConfidence,
			Box:        box,
		})
	}
	return out, nil
}
