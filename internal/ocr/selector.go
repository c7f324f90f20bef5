package ocr

import (
	"errors"
	"sort"
)

// ErrNoEngineAvailable is returned when no OCR backend can serve a request.
var ErrNoEngineAvailable = errors.New("no OCR engine available")

// cjkLanguages are the language codes routed to PaddleOCR when it is present.
var cjkLanguages = map[string]bool{
	"tha":     true,
	"chi_sim": true,
	"chi_tra": true,
	"jpn":     true,
	"kor":     true,
}

// Availability is an immutable snapshot of which OCR backends are usable.
// It is computed once at process start and injected wherever engine selection
// happens, so tests can construct arbitrary sets.
type Availability struct {
	engines map[Engine]bool
}

// NewAvailability builds a snapshot from the given engines.
func NewAvailability(engines ...Engine) Availability {
	set := make(map[Engine]bool, len(engines))
	for _, e := range engines {
		set[e] = true
	}
	return Availability{engines: set}
}

// Has reports whether the engine was available at snapshot time.
func (a Availability) Has(engine Engine) bool {
	return a.engines[engine]
}

// Empty reports whether no engine is available.
func (a Availability) Empty() bool {
	return len(a.engines) == 0
}

// List returns the available engines in stable order.
func (a Availability) List() []Engine {
	engines := make([]Engine, 0, len(a.engines))
	for e := range a.engines {
		engines = append(engines, e)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i] < engines[j] })
	return engines
}

// Selector maps request traits to a concrete OCR backend.
type Selector struct {
	available Availability
}

// NewSelector creates a selector over a fixed availability snapshot.
func NewSelector(available Availability) *Selector {
	return &Selector{available: available}
}

// Select picks the best backend for the given traits. The policy is a fixed
// priority list; the first matching rule wins, so identical inputs always
// yield the same engine:
//
//  1. business tier with Google Vision available
//  2. handwritten documents with EasyOCR available
//  3. CJK/Thai languages with PaddleOCR available
//  4. multilingual documents with EasyOCR available
//  5. RapidOCR for fast processing
//  6. Tesseract as the compatibility baseline
func (s *Selector) Select(tier Tier, language string, isHandwritten, isMultilingual bool) (Engine, error) {
	if s.available.Empty() {
		return "", ErrNoEngineAvailable
	}

	if tier == TierBusiness && s.available.Has(EngineGoogleVision) {
		return EngineGoogleVision, nil
	}

	if isHandwritten && s.available.Has(EngineEasyOCR) {
		return EngineEasyOCR, nil
	}

	if cjkLanguages[language] && s.available.Has(EnginePaddleOCR) {
		return EnginePaddleOCR, nil
	}

	if isMultilingual && s.available.Has(EngineEasyOCR) {
		return EngineEasyOCR, nil
	}

	if s.available.Has(EngineRapidOCR) {
		return EngineRapidOCR, nil
	}

	if s.available.Has(EngineTesseract) {
		return EngineTesseract, nil
	}

	return "", ErrNoEngineAvailable
}

// Available returns the snapshot the selector operates on.
func (s *Selector) Available() Availability {
	return s.available
}
