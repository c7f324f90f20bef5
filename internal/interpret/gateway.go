package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/forms"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
)

// Gateway wraps the natural-language collaborator with strict fallback
// semantics: the model is never assumed to return valid structured output,
// and no failure here escalates past a defined default value.
type Gateway struct {
	model llms.Model
	log   *logrus.Entry
}

// NewGateway creates a gateway over the given model. A nil model is valid;
// every operation then takes its fallback path.
func NewGateway(model llms.Model) *Gateway {
	return &Gateway{
		model: model,
		log:   logrus.WithField("component", "interpret"),
	}
}

// ParseFillInstructions converts free-text filling instructions into a
// label→value mapping over the detected fields. Any collaborator or parse
// failure yields an empty mapping, which callers read as "nothing filled".
// Keys that do not match a detected label are dropped, not errors.
func (g *Gateway) ParseFillInstructions(ctx context.Context, instructions string, fields []forms.FieldCandidate) map[string]string {
	mapping := map[string]string{}

	response, err := g.generate(ctx, fillInstructionsPrompt(instructions, fields))
	if err != nil {
		g.log.WithError(err).Error("failed to parse fill instructions")
		return mapping
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &raw); err != nil {
		g.log.WithError(err).Error("fill-instruction response was not valid JSON")
		return mapping
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Label] = true
	}

	for label, value := range raw {
		if !known[label] {
			continue
		}
		if s, ok := stringify(value); ok {
			mapping[label] = s
		}
	}

	g.log.WithField("mappings", len(mapping)).Info("parsed field mappings from instructions")
	return mapping
}

// InterpretExtractionQuery converts a free-text extraction query into fully
// populated parameters. Any failure yields the fixed fallback: extract
// everything as text, with the query itself as the extraction focus.
func (g *Gateway) InterpretExtractionQuery(ctx context.Context, query string, summary docstruct.Summary) ExtractionParameters {
	response, err := g.generate(ctx, extractionQueryPrompt(query, summary))
	if err != nil {
		g.log.WithError(err).Error("failed to interpret extraction query")
		return FallbackParameters(query)
	}

	var params ExtractionParameters
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &params); err != nil {
		g.log.WithError(err).Error("extraction-query response was not valid JSON")
		return FallbackParameters(query)
	}

	params.applyDefaults(query)
	return params
}

// SummarizeExtraction produces a best-effort summary of extracted content.
func (g *Gateway) SummarizeExtraction(ctx context.Context, content string, maxWords int) string {
	response, err := g.generate(ctx, summaryPrompt(content, maxWords))
	if err != nil {
		g.log.WithError(err).Error("failed to generate summary")
		return "Summary generation failed"
	}
	return strings.TrimSpace(response)
}

// generate runs one prompt through the collaborator.
func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	if g.model == nil {
		return "", fmt.Errorf("interpreter model not configured")
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("interpreter generation failed: %w", err)
	}
	return response, nil
}

// stripCodeFence removes Markdown code-fence wrapping (```json ... ``` or
// ``` ... ```) the collaborator may add around structured output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	return s
}

// stringify converts scalar JSON values to the string a form field expects.
func stringify(v any) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case bool:
		if value {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
