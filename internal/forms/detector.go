package forms

import (
	"strings"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/sirupsen/logrus"
)

// FieldType classifies a detected form field.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeSignature FieldType = "signature"
	FieldTypeDate      FieldType = "date"
)

// DetectedFieldConfidence is the fixed confidence assigned to every heuristic
// match. It is a placeholder, not a calibrated probability; callers must not
// treat it as one.
const DetectedFieldConfidence = 0.8

// fieldIndicators mark text elements that look like fillable fields. Matched
// case-insensitively against element content.
var fieldIndicators = []string{
	"name:", "date:", "address:", "email:", "phone:",
	"signature:", "_____", "[ ]", "(  )",
}

// labelStrip lists the substrings removed from content when deriving a label.
var labelStrip = []string{"_____", "[ ]", "(  )", ":"}

// FieldCandidate is one heuristically detected form field. Immutable after
// creation.
type FieldCandidate struct {
	Page       int                   `json:"page"`
	Label      string                `json:"label"`
	Type       FieldType             `json:"type"`
	Box        docstruct.BoundingBox `json:"bbox"`
	Confidence float64               `json:"confidence"`
}

// Detector classifies structural text elements into form-field candidates.
type Detector struct {
	log *logrus.Entry
}

// NewDetector creates a form-field detector.
func NewDetector() *Detector {
	return &Detector{log: logrus.WithField("component", "forms")}
}

// Detect scans every text element on every page for field indicators.
func (d *Detector) Detect(structure *docstruct.DocumentStructure) []FieldCandidate {
	var candidates []FieldCandidate
	for _, page := range structure.Pages {
		for _, element := range page.Elements {
			if !isLikelyField(element.Content) {
				continue
			}
			candidates = append(candidates, FieldCandidate{
				Page:       page.PageNumber,
				Label:      extractLabel(element.Content),
				Type:       inferFieldType(element.Content),
				Box:        element.Box,
				Confidence: DetectedFieldConfidence,
			})
		}
	}

	d.log.WithField("fields", len(candidates)).Debug("form field detection complete")
	return candidates
}

// isLikelyField reports whether the content carries any field indicator.
func isLikelyField(content string) bool {
	if content == "" {
		return false
	}
	lower := strings.ToLower(content)
	for _, indicator := range fieldIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// inferFieldType maps content to a field type. Checkbox outranks signature,
// which outranks date; everything else is a text field.
func inferFieldType(content string) FieldType {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "[ ]") || strings.Contains(lower, "checkbox"):
		return FieldTypeCheckbox
	case strings.Contains(lower, "signature"):
		return FieldTypeSignature
	case strings.Contains(lower, "date"):
		return FieldTypeDate
	default:
		return FieldTypeText
	}
}

// extractLabel strips indicator substrings and colons, then trims whitespace.
func extractLabel(content string) string {
	for _, s := range labelStrip {
		content = strings.ReplaceAll(content, s, "")
	}
	return strings.TrimSpace(content)
}
