package pipeline

import (
	"time"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/forms"
	"github.com/pdfpilot/pdfpilot/internal/interpret"
	"github.com/pdfpilot/pdfpilot/internal/ocr"
)

// DocumentAnalysis is the request-scoped accumulator shared by all three
// workflows. It is rebuilt on every call and owned by a single request.
type DocumentAnalysis struct {
	Path          string                       `json:"path"`
	Structure     *docstruct.DocumentStructure `json:"structure"`
	IsScanned     bool                         `json:"is_scanned"`
	OCRText       string                       `json:"ocr_text,omitempty"`
	OCREngineUsed ocr.Engine                   `json:"ocr_engine_used,omitempty"`
	FormFields    []forms.FieldCandidate       `json:"form_fields"`
	HasForms      bool                         `json:"has_forms"`
	TotalPages    int                          `json:"total_pages"`
	TotalTables   int                          `json:"total_tables"`
	AnalyzedAt    time.Time                    `json:"analyzed_at"`
}

// FillFormRequest carries one form-filling request.
type FillFormRequest struct {
	Path         string   `json:"path"`
	Instructions string   `json:"instructions"`
	Tier         ocr.Tier `json:"tier,omitempty"`
}

// FillResult reports the outcome of a fill workflow. Business failures such
// as a document without form fields set Success to false with a reason and
// are not errors.
type FillResult struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	FieldsFilled int    `json:"fields_filled"`
	FieldsTotal  int    `json:"fields_total,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
}

// ExtractContentRequest carries one extraction request. Pages, when set,
// overrides whatever page selection the interpreter suggests.
type ExtractContentRequest struct {
	Path         string   `json:"path"`
	Query        string   `json:"query"`
	OutputFormat string   `json:"output_format,omitempty"`
	Tier         ocr.Tier `json:"tier,omitempty"`
	Pages        []int    `json:"pages,omitempty"`
}

// ExtractResult reports the outcome of an extract workflow, including the
// interpretation the content was produced under.
type ExtractResult struct {
	Success          bool                           `json:"success"`
	Content          string                         `json:"content"`
	ContentType      interpret.ContentType          `json:"content_type"`
	OutputFormat     interpret.OutputFormat         `json:"output_format"`
	PagesProcessed   []int                          `json:"pages_processed"`
	ExtractionParams interpret.ExtractionParameters `json:"extraction_params"`
	Summary          string                         `json:"summary,omitempty"`
}
