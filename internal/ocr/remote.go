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

// RemoteBackend talks to an OCR sidecar service over HTTP. EasyOCR, PaddleOCR
// and RapidOCR run as separate model-serving processes; they all answer the
// same JSON contract: full text plus words with unit-scale confidence and
// four-point boxes.
type RemoteBackend struct {
	engine   Engine
	endpoint string
	client   *http.Client
}

// NewRemoteBackend creates a backend for an OCR sidecar reachable at endpoint.
func NewRemoteBackend(engine Engine, endpoint string) *RemoteBackend {
	return &RemoteBackend{
		engine:   engine,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Engine returns the engine id.
func (r *RemoteBackend) Engine() Engine {
	return r.engine
}

type remoteRequest struct {
	Image    string `json:"image"`
	Language string `json:"language,omitempty"`
}

type remoteResponse struct {
	Text  string `json:"text"`
	Words []struct {
		Text       string       `json:"text"`
		Confidence float64      `json:"confidence"`
		Box        [][2]float64 `json:"box"`
	} `json:"words"`
	Error string `json:"error,omitempty"`
}

// Recognize sends the page image to the sidecar and maps its response into
// the native result shape.
func (r *RemoteBackend) Recognize(ctx context.Context, img PageImage, language string) (*RawOutput, error) {
	payload, err := json.Marshal(remoteRequest{
		Image:    base64.StdEncoding.EncodeToString(img.Data),
		Language: language,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", r.engine, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", r.engine, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", r.engine, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", r.engine, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s sidecar returned status %d", r.engine, resp.StatusCode)
	}

	var parsed remoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", r.engine, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%s sidecar error: %s", r.engine, parsed.Error)
	}

	out := &RawOutput{Text: parsed.Text, Scale: ScaleUnit}
	for _, w := range parsed.Words {
		box := RawBox{Kind: BoxQuad}
		for _, p := range w.Box {
			box.Points = append(box.Points, Point{X: p[0], Y: p[1]})
		}
		out.Words = append(out.Words, RawWord{
			Text:       w.Text,
			Confidence: w.Confidence,
			Box:        box,
		})
	}
	return out, nil
}
