package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/forms"
	"github.com/pdfpilot/pdfpilot/internal/interpret"
	"github.com/pdfpilot/pdfpilot/internal/ocr"
)

type fakeAnalyzer struct {
	structure *docstruct.DocumentStructure
	err       error
	markdown  string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*docstruct.DocumentStructure, error) {
	return f.structure, f.err
}

func (f *fakeAnalyzer) ExportMarkdown(_ context.Context, _ string) (string, error) {
	return f.markdown, nil
}

type fakeClassifier struct{ scanned bool }

func (f fakeClassifier) IsScanned(string) bool { return f.scanned }

type fakeInterpreter struct {
	mapping      map[string]string
	params       interpret.ExtractionParameters
	fillCalls    int
	queryCalls   int
	lastQuery    string
	lastInstr    string
	lastSummary  docstruct.Summary
	lastFillSize int
	summary      string
	summaryCalls int
}

func (f *fakeInterpreter) ParseFillInstructions(_ context.Context, instructions string, fields []forms.FieldCandidate) map[string]string {
	f.fillCalls++
	f.lastInstr = instructions
	f.lastFillSize = len(fields)
	return f.mapping
}

func (f *fakeInterpreter) InterpretExtractionQuery(_ context.Context, query string, summary docstruct.Summary) interpret.ExtractionParameters {
	f.queryCalls++
	f.lastQuery = query
	f.lastSummary = summary
	return f.params
}

func (f *fakeInterpreter) SummarizeExtraction(_ context.Context, _ string, _ int) string {
	f.summaryCalls++
	return f.summary
}

type fakeWriter struct {
	output string
	err    error
	calls  int
}

func (f *fakeWriter) Fill(_ context.Context, path string, _ []forms.FieldCandidate, _ map[string]string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.output != "" {
		return f.output, nil
	}
	return path, nil
}

type fakeRasterizer struct {
	calls int
	pages []int
}

func (f *fakeRasterizer) PageImages(_ context.Context, _ string, pages []int) ([]ocr.PageImage, error) {
	f.calls++
	f.pages = pages
	if pages == nil {
		pages = []int{1, 2}
	}
	images := make([]ocr.PageImage, 0, len(pages))
	for _, page := range pages {
		images = append(images, ocr.PageImage{PageNumber: page, Data: []byte{0x1}, Format: "png"})
	}
	return images, nil
}

// pageTextBackend returns fixed text per page number.
type pageTextBackend struct{}

func (pageTextBackend) Engine() ocr.Engine { return ocr.EngineTesseract }

func (pageTextBackend) Recognize(_ context.Context, img ocr.PageImage, _ string) (*ocr.RawOutput, error) {
	return &ocr.RawOutput{Text: fmt.Sprintf("page %d text", img.PageNumber), Scale: ocr.ScaleUnit}, nil
}

func digitalStructure(totalPages int, elements ...docstruct.TextElement) *docstruct.DocumentStructure {
	return &docstruct.DocumentStructure{
		TotalPages: totalPages,
		Pages:      []docstruct.PageStructure{{PageNumber: 1, Elements: elements}},
	}
}

func newTestProcessor(deps Deps) *Processor {
	if deps.Selector == nil {
		deps.Selector = ocr.NewSelector(ocr.NewAvailability(ocr.EngineTesseract))
	}
	if deps.Adapter == nil {
		deps.Adapter = ocr.NewAdapter(pageTextBackend{})
	}
	if deps.Rasterizer == nil {
		deps.Rasterizer = &fakeRasterizer{}
	}
	if deps.Gateway == nil {
		deps.Gateway = &fakeInterpreter{}
	}
	if deps.Classifier == nil {
		deps.Classifier = fakeClassifier{}
	}
	return NewProcessor(deps)
}

func TestProcessor_AnalyzeDocument_Digital(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(2,
			docstruct.TextElement{Content: "Quarterly report narrative text"},
		)},
		Classifier: fakeClassifier{scanned: false},
		Rasterizer: rasterizer,
	})

	analysis, err := processor.AnalyzeDocument(context.Background(), "report.pdf", ocr.TierFree)
	require.NoError(t, err)

	assert.False(t, analysis.IsScanned)
	assert.Empty(t, analysis.OCRText)
	assert.Empty(t, string(analysis.OCREngineUsed))
	assert.Equal(t, 2, analysis.TotalPages)
	assert.False(t, analysis.HasForms)
	assert.Zero(t, rasterizer.calls)
	assert.False(t, analysis.AnalyzedAt.IsZero())
}

func TestProcessor_AnalyzeDocument_ScannedRunsOCRInPageOrder(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer:   &fakeAnalyzer{structure: digitalStructure(2)},
		Classifier: fakeClassifier{scanned: true},
	})

	analysis, err := processor.AnalyzeDocument(context.Background(), "scan.pdf", ocr.TierFree)
	require.NoError(t, err)

	assert.True(t, analysis.IsScanned)
	assert.Equal(t, ocr.EngineTesseract, analysis.OCREngineUsed)
	assert.Equal(t, "page 1 text\n\npage 2 text", analysis.OCRText)
}

func TestProcessor_AnalyzeDocument_NoEngineDegrades(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer:   &fakeAnalyzer{structure: digitalStructure(1)},
		Classifier: fakeClassifier{scanned: true},
		Selector:   ocr.NewSelector(ocr.NewAvailability()),
	})

	analysis, err := processor.AnalyzeDocument(context.Background(), "scan.pdf", ocr.TierFree)
	require.NoError(t, err)

	assert.True(t, analysis.IsScanned)
	assert.Empty(t, analysis.OCRText)
	assert.Empty(t, string(analysis.OCREngineUsed))
}

func TestProcessor_AnalyzeDocument_StructureFailureIsFatal(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{err: errors.New("corrupt xref")},
	})

	_, err := processor.AnalyzeDocument(context.Background(), "bad.pdf", ocr.TierFree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt xref")
}

func TestProcessor_FillForm_NoFieldsSkipsInterpreter(t *testing.T) {
	interpreter := &fakeInterpreter{}
	writer := &fakeWriter{}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1,
			docstruct.TextElement{Content: "plain paragraph with no fields"},
		)},
		Gateway: interpreter,
		Writer:  writer,
	})

	result, err := processor.FillForm(context.Background(), FillFormRequest{Path: "doc.pdf", Instructions: "fill everything"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "No form fields detected in this PDF", result.Error)
	assert.Zero(t, result.FieldsFilled)
	assert.Zero(t, interpreter.fillCalls)
	assert.Zero(t, writer.calls)
}

func TestProcessor_FillForm_EmptyMappingIsStructuredFailure(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1,
			docstruct.TextElement{Content: "Name: _____"},
		)},
		Gateway: &fakeInterpreter{mapping: map[string]string{}},
	})

	result, err := processor.FillForm(context.Background(), FillFormRequest{Path: "form.pdf", Instructions: "gibberish"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Could not understand filling instructions", result.Error)
	assert.Zero(t, result.FieldsFilled)
}

func TestProcessor_FillForm_Success(t *testing.T) {
	writer := &fakeWriter{output: "form_filled.pdf"}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1,
			docstruct.TextElement{Content: "Name: _____"},
			docstruct.TextElement{Content: "Date: _____"},
		)},
		Gateway: &fakeInterpreter{mapping: map[string]string{"Name": "Ada Lovelace"}},
		Writer:  writer,
	})

	result, err := processor.FillForm(context.Background(), FillFormRequest{Path: "form.pdf", Instructions: "name is Ada Lovelace"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FieldsFilled)
	assert.Equal(t, 2, result.FieldsTotal)
	assert.Equal(t, "form_filled.pdf", result.OutputPath)
	assert.Equal(t, 1, writer.calls)
}

func TestProcessor_FillForm_WriterFailureIsStructured(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1,
			docstruct.TextElement{Content: "Name: _____"},
		)},
		Gateway: &fakeInterpreter{mapping: map[string]string{"Name": "Ada"}},
		Writer:  &fakeWriter{err: errors.New("permission denied")},
	})

	result, err := processor.FillForm(context.Background(), FillFormRequest{Path: "form.pdf", Instructions: "name is Ada"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "permission denied")
}

func TestProcessor_ExtractContent_DigitalTextUsesMarkdownExport(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(3), markdown: "# Page 1\n\nbody"},
		Gateway: &fakeInterpreter{params: interpret.ExtractionParameters{
			ContentType:  interpret.ContentTypeText,
			TargetPages:  interpret.AllPages(),
			OutputFormat: interpret.OutputFormatMarkdown,
			Keywords:     []string{},
		}},
	})

	result, err := processor.ExtractContent(context.Background(), ExtractContentRequest{Path: "doc.pdf", Query: "get the text"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "# Page 1\n\nbody", result.Content)
	assert.Equal(t, interpret.ContentTypeText, result.ContentType)
	assert.Equal(t, []int{1, 2, 3}, result.PagesProcessed)
}

func TestProcessor_ExtractContent_CallerPagesOverrideInterpreter(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	processor := newTestProcessor(Deps{
		Analyzer:   &fakeAnalyzer{structure: digitalStructure(5)},
		Classifier: fakeClassifier{scanned: true},
		Rasterizer: rasterizer,
		Gateway: &fakeInterpreter{params: interpret.ExtractionParameters{
			ContentType:  interpret.ContentTypeText,
			TargetPages:  interpret.PageSelection{Pages: []int{1}},
			OutputFormat: interpret.OutputFormatText,
		}},
	})

	result, err := processor.ExtractContent(context.Background(), ExtractContentRequest{
		Path:  "scan.pdf",
		Query: "read pages",
		Pages: []int{3, 2, 9},
	})
	require.NoError(t, err)

	// Out-of-range page 9 is dropped; the interpreter's page 1 is ignored.
	assert.Equal(t, []int{2, 3}, result.PagesProcessed)
	assert.Equal(t, []int{2, 3}, rasterizer.pages)
	assert.Equal(t, "page 2 text\n\npage 3 text", result.Content)
}

func TestProcessor_ExtractContent_TableWordInQueryForcesTableBranch(t *testing.T) {
	structure := digitalStructure(1)
	structure.Tables = []docstruct.Table{{
		Page:    1,
		Headers: []string{"Item", "Price"},
		Rows:    [][]string{{"Widget", "9.99"}},
	}}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: structure, markdown: "should not be used"},
		Gateway: &fakeInterpreter{params: interpret.ExtractionParameters{
			ContentType:  interpret.ContentTypeText,
			TargetPages:  interpret.AllPages(),
			OutputFormat: interpret.OutputFormatCSV,
		}},
	})

	result, err := processor.ExtractContent(context.Background(), ExtractContentRequest{Path: "doc.pdf", Query: "show me the price table"})
	require.NoError(t, err)

	assert.Equal(t, interpret.ContentTypeTable, result.ContentType)
	assert.Equal(t, "Item,Price\nWidget,9.99", result.Content)
}

func TestProcessor_ExtractContent_RequestFormatOverridesInterpreter(t *testing.T) {
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1), markdown: "body"},
		Gateway: &fakeInterpreter{params: interpret.ExtractionParameters{
			ContentType:  interpret.ContentTypeText,
			TargetPages:  interpret.AllPages(),
			OutputFormat: interpret.OutputFormatMarkdown,
		}},
	})

	result, err := processor.ExtractContent(context.Background(), ExtractContentRequest{
		Path:         "doc.pdf",
		Query:        "read it",
		OutputFormat: "json",
	})
	require.NoError(t, err)

	assert.Equal(t, interpret.OutputFormatJSON, result.OutputFormat)
	assert.JSONEq(t, `{"content": "body"}`, result.Content)
}

func TestProcessor_ExtractContent_LongContentGetsSummary(t *testing.T) {
	long := strings.Repeat("paragraph of body text ", 200)
	interpreter := &fakeInterpreter{
		params: interpret.ExtractionParameters{
			ContentType:  interpret.ContentTypeText,
			TargetPages:  interpret.AllPages(),
			OutputFormat: interpret.OutputFormatText,
		},
		summary: "A dense report.",
	}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1), markdown: long},
		Gateway:  interpreter,
	})

	result, err := processor.ExtractContent(context.Background(), ExtractContentRequest{Path: "doc.pdf", Query: "read it"})
	require.NoError(t, err)

	assert.Equal(t, "A dense report.", result.Summary)
	assert.Equal(t, 1, interpreter.summaryCalls)
}

func TestProcessor_ExtractContent_ShortContentSkipsSummary(t *testing.T) {
	interpreter := &fakeInterpreter{params: interpret.ExtractionParameters{
		ContentType:  interpret.ContentTypeText,
		TargetPages:  interpret.AllPages(),
		OutputFormat: interpret.OutputFormatText,
	}}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1), markdown: "short"},
		Gateway:  interpreter,
	})

	result, err := processor.ExtractContent(context.Background(), ExtractContentRequest{Path: "doc.pdf", Query: "read it"})
	require.NoError(t, err)

	assert.Empty(t, result.Summary)
	assert.Zero(t, interpreter.summaryCalls)
}

func TestProcessor_EndToEnd_DigitalNoFields(t *testing.T) {
	// An 80 words/page digital document with no field indicators: not
	// scanned, no forms, and fill reports the no-fields failure.
	words := ""
	for i := 0; i < 80; i++ {
		words += fmt.Sprintf("word%d ", i)
	}
	source := leadingTextStub{texts: []string{words}}
	classifier := docstruct.NewScannedClassifierWithSource(source)

	interpreter := &fakeInterpreter{}
	processor := newTestProcessor(Deps{
		Analyzer: &fakeAnalyzer{structure: digitalStructure(1,
			docstruct.TextElement{Content: words},
		)},
		Classifier: classifier,
		Gateway:    interpreter,
	})

	analysis, err := processor.AnalyzeDocument(context.Background(), "doc.pdf", ocr.TierFree)
	require.NoError(t, err)
	assert.False(t, analysis.IsScanned)
	assert.False(t, analysis.HasForms)

	result, err := processor.FillForm(context.Background(), FillFormRequest{Path: "doc.pdf", Instructions: "fill it in"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "No form fields detected in this PDF", result.Error)
	assert.Zero(t, interpreter.fillCalls)
}

type leadingTextStub struct{ texts []string }

func (s leadingTextStub) LeadingPageTexts(_ string, maxPages int) ([]string, error) {
	if len(s.texts) > maxPages {
		return s.texts[:maxPages], nil
	}
	return s.texts, nil
}
