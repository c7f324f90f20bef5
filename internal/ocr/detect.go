package ocr

import "github.com/sirupsen/logrus"

// BackendConfig describes which backends this process can reach.
type BackendConfig struct {
	EnableTesseract bool
	VisionAPIKey    string
	EasyOCRURL      string
	PaddleOCRURL    string
	RapidOCRURL     string
}

// DetectBackends probes the environment once at startup and returns the
// usable backends together with the matching availability snapshot. The
// snapshot is never invalidated at runtime; picking up a newly installed
// backend requires a restart.
func DetectBackends(cfg BackendConfig) ([]Backend, Availability) {
	log := logrus.WithField("component", "ocr")

	var backends []Backend
	var engines []Engine

	if cfg.EnableTesseract {
		tess := NewTesseractBackend()
		if tess.probe() {
			backends = append(backends, tess)
			engines = append(engines, EngineTesseract)
		} else {
			log.Warn("Tesseract not available")
		}
	}

	if cfg.VisionAPIKey != "" {
		backends = append(backends, NewGoogleVisionBackend(cfg.VisionAPIKey))
		engines = append(engines, EngineGoogleVision)
	}

	sidecars := []struct {
		engine   Engine
		endpoint string
	}{
		{EngineEasyOCR, cfg.EasyOCRURL},
		{EnginePaddleOCR, cfg.PaddleOCRURL},
		{EngineRapidOCR, cfg.RapidOCRURL},
	}
	for _, s := range sidecars {
		if s.endpoint == "" {
			continue
		}
		backends = append(backends, NewRemoteBackend(s.engine, s.endpoint))
		engines = append(engines, s.engine)
	}

	availability := NewAvailability(engines...)
	log.WithField("engines", availability.List()).Info("OCR backends detected")
	return backends, availability
}
