package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/forms"
	"github.com/pdfpilot/pdfpilot/internal/interpret"
	"github.com/pdfpilot/pdfpilot/internal/ocr"
)

// Business-failure reasons surfaced verbatim to callers.
const (
	errNoFormFields       = "No form fields detected in this PDF"
	errUnparsableFillText = "Could not understand filling instructions"
)

// ScannedClassifier decides whether a document is image-based.
type ScannedClassifier interface {
	IsScanned(path string) bool
}

// Interpreter is the natural-language boundary the workflows consult. Every
// method has defined fallback output, so callers never branch on errors.
type Interpreter interface {
	ParseFillInstructions(ctx context.Context, instructions string, fields []forms.FieldCandidate) map[string]string
	InterpretExtractionQuery(ctx context.Context, query string, summary docstruct.Summary) interpret.ExtractionParameters
	SummarizeExtraction(ctx context.Context, content string, maxWords int) string
}

// Extractions longer than this get a generated summary attached.
const summaryContentThreshold = 2000

const summaryMaxWords = 100

// Deps collects the collaborators a Processor orchestrates. Zero-value
// optional fields get working defaults from NewProcessor.
type Deps struct {
	Analyzer   docstruct.Analyzer
	Classifier ScannedClassifier
	Detector   *forms.Detector
	Writer     forms.Writer
	Selector   *ocr.Selector
	Adapter    *ocr.Adapter
	Rasterizer Rasterizer
	Gateway    Interpreter

	// Language is the OCR language hint, defaulting to "eng".
	Language string
}

// Processor runs the three document workflows: analyze, fill, and extract.
// It holds no per-request state; each call builds its own DocumentAnalysis.
type Processor struct {
	analyzer   docstruct.Analyzer
	classifier ScannedClassifier
	detector   *forms.Detector
	writer     forms.Writer
	selector   *ocr.Selector
	adapter    *ocr.Adapter
	rasterizer Rasterizer
	gateway    Interpreter
	formatter  TableFormatter
	language   string
	log        *logrus.Entry
}

func NewProcessor(deps Deps) *Processor {
	if deps.Classifier == nil {
		deps.Classifier = docstruct.NewScannedClassifier()
	}
	if deps.Detector == nil {
		deps.Detector = forms.NewDetector()
	}
	if deps.Writer == nil {
		deps.Writer = forms.NewUnimplementedWriter()
	}
	if deps.Rasterizer == nil {
		deps.Rasterizer = NewEmbeddedImageRasterizer()
	}
	if deps.Language == "" {
		deps.Language = "eng"
	}
	return &Processor{
		analyzer:   deps.Analyzer,
		classifier: deps.Classifier,
		detector:   deps.Detector,
		writer:     deps.Writer,
		selector:   deps.Selector,
		adapter:    deps.Adapter,
		rasterizer: deps.Rasterizer,
		gateway:    deps.Gateway,
		language:   deps.Language,
		log:        logrus.WithField("component", "pipeline"),
	}
}

// AnalyzeDocument builds the complete picture of a document: structure,
// scanned classification, OCR text when scanned, and form-field candidates.
// Only a structure-analysis failure is fatal; the OCR and classification
// steps degrade in place.
func (p *Processor) AnalyzeDocument(ctx context.Context, path string, tier ocr.Tier) (*DocumentAnalysis, error) {
	structure, err := p.analyzer.Analyze(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document structure: %w", err)
	}

	analysis := &DocumentAnalysis{
		Path:        path,
		Structure:   structure,
		TotalPages:  structure.TotalPages,
		TotalTables: len(structure.Tables),
		AnalyzedAt:  time.Now().UTC(),
	}

	analysis.IsScanned = p.classifier.IsScanned(path)
	if analysis.IsScanned {
		text, engine := p.ocrPages(ctx, path, tier, nil)
		analysis.OCRText = text
		analysis.OCREngineUsed = engine
	}

	analysis.FormFields = p.detector.Detect(structure)
	analysis.HasForms = len(analysis.FormFields) > 0

	p.log.WithFields(logrus.Fields{
		"path":        path,
		"pages":       analysis.TotalPages,
		"scanned":     analysis.IsScanned,
		"form_fields": len(analysis.FormFields),
	}).Info("document analyzed")
	return analysis, nil
}

// FillForm analyzes the document, interprets the filling instructions, and
// delegates the actual write. Documents without fields and instructions the
// interpreter cannot map both produce structured failures, not errors.
func (p *Processor) FillForm(ctx context.Context, req FillFormRequest) (*FillResult, error) {
	analysis, err := p.AnalyzeDocument(ctx, req.Path, req.Tier)
	if err != nil {
		return nil, err
	}

	if !analysis.HasForms {
		return &FillResult{Success: false, Error: errNoFormFields}, nil
	}

	mapping := p.gateway.ParseFillInstructions(ctx, req.Instructions, analysis.FormFields)
	if len(mapping) == 0 {
		return &FillResult{Success: false, Error: errUnparsableFillText}, nil
	}

	outputPath, err := p.writer.Fill(ctx, req.Path, analysis.FormFields, mapping)
	if err != nil {
		return &FillResult{
			Success:     false,
			Error:       fmt.Sprintf("Failed to write form fields: %v", err),
			FieldsTotal: len(analysis.FormFields),
		}, nil
	}

	return &FillResult{
		Success:      true,
		FieldsFilled: len(mapping),
		FieldsTotal:  len(analysis.FormFields),
		OutputPath:   outputPath,
	}, nil
}

// ExtractContent analyzes the document, interprets the query, and extracts
// the targeted content. Caller-supplied pages always override the
// interpreter's page suggestion.
func (p *Processor) ExtractContent(ctx context.Context, req ExtractContentRequest) (*ExtractResult, error) {
	analysis, err := p.AnalyzeDocument(ctx, req.Path, req.Tier)
	if err != nil {
		return nil, err
	}

	params := p.gateway.InterpretExtractionQuery(ctx, req.Query, analysis.Structure.Summarize())
	if interpret.ValidOutputFormat(req.OutputFormat) {
		params.OutputFormat = interpret.OutputFormat(req.OutputFormat)
	}

	pages := p.resolvePages(req.Pages, params.TargetPages, analysis.TotalPages)

	wantsTable := params.ContentType == interpret.ContentTypeTable ||
		strings.Contains(strings.ToLower(req.Query), "table")

	var content string
	contentType := params.ContentType
	if wantsTable {
		contentType = interpret.ContentTypeTable
		content, err = p.formatter.Format(analysis.Structure.TablesForPages(pages), params.OutputFormat)
		if err != nil {
			return nil, fmt.Errorf("failed to format tables: %w", err)
		}
	} else {
		if analysis.IsScanned {
			content, _ = p.ocrPages(ctx, req.Path, req.Tier, pages)
		} else {
			content, err = p.analyzer.ExportMarkdown(ctx, req.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to export document text: %w", err)
			}
		}
		if params.OutputFormat == interpret.OutputFormatJSON {
			wrapped, err := json.Marshal(map[string]string{"content": content})
			if err != nil {
				return nil, fmt.Errorf("failed to encode content: %w", err)
			}
			content = string(wrapped)
		}
	}

	result := &ExtractResult{
		Success:          true,
		Content:          content,
		ContentType:      contentType,
		OutputFormat:     params.OutputFormat,
		PagesProcessed:   pages,
		ExtractionParams: params,
	}
	if len(content) > summaryContentThreshold {
		result.Summary = p.gateway.SummarizeExtraction(ctx, content, summaryMaxWords)
	}
	return result, nil
}

// resolvePages applies the override rule: explicit request pages win over
// the interpreted selection, filtered to the document's range.
func (p *Processor) resolvePages(requested []int, selection interpret.PageSelection, totalPages int) []int {
	if len(requested) > 0 {
		pages := make([]int, 0, len(requested))
		for _, page := range requested {
			if page >= 1 && page <= totalPages {
				pages = append(pages, page)
			}
		}
		sort.Ints(pages)
		return pages
	}
	return selection.Resolve(totalPages)
}

// ocrPages runs OCR over the given pages (nil means all) and joins page
// texts in page order with a blank line. Every failure mode degrades to
// empty text; OCR never aborts a workflow.
func (p *Processor) ocrPages(ctx context.Context, path string, tier ocr.Tier, pages []int) (string, ocr.Engine) {
	engine, err := p.selector.Select(tier, p.language, false, false)
	if err != nil {
		p.log.WithError(err).Warn("no OCR engine available, continuing without OCR text")
		return "", ""
	}

	images, err := p.rasterizer.PageImages(ctx, path, pages)
	if err != nil {
		p.log.WithError(err).Warn("failed to rasterize pages, continuing without OCR text")
		return "", engine
	}
	if len(images) == 0 {
		return "", engine
	}

	results := p.adapter.ExtractPages(ctx, images, engine, p.language)
	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Text)
	}
	return strings.Join(texts, "\n\n"), engine
}
