package interpret

import (
	"context"
	"errors"
	"testing"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel serves a canned completion.
type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompts = append(f.prompts, text.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

var sampleFields = []forms.FieldCandidate{
	{Label: "Name", Type: forms.FieldTypeText},
	{Label: "Address", Type: forms.FieldTypeText},
	{Label: "Date", Type: forms.FieldTypeDate},
}

func TestGateway_ParseFillInstructions(t *testing.T) {
	model := &fakeModel{response: `{"Name": "John Doe", "Address": "123 Main St"}`}
	gateway := NewGateway(model)

	mapping := gateway.ParseFillInstructions(context.Background(), "fill name as John Doe at 123 Main St", sampleFields)

	assert.Equal(t, map[string]string{
		"Name":    "John Doe",
		"Address": "123 Main St",
	}, mapping)
}

func TestGateway_ParseFillInstructions_StripsCodeFence(t *testing.T) {
	model := &fakeModel{response: "```json\n{\"Name\": \"Ada\"}\n```"}
	gateway := NewGateway(model)

	mapping := gateway.ParseFillInstructions(context.Background(), "name is Ada", sampleFields)

	assert.Equal(t, map[string]string{"Name": "Ada"}, mapping)
}

func TestGateway_ParseFillInstructions_DropsUnknownLabels(t *testing.T) {
	model := &fakeModel{response: `{"Name": "Ada", "Nickname": "The Countess"}`}
	gateway := NewGateway(model)

	mapping := gateway.ParseFillInstructions(context.Background(), "instructions", sampleFields)

	assert.Equal(t, map[string]string{"Name": "Ada"}, mapping)
}

func TestGateway_ParseFillInstructions_NonStringValues(t *testing.T) {
	model := &fakeModel{response: `{"Name": 42, "Date": true, "Address": {"city": "x"}}`}
	gateway := NewGateway(model)

	mapping := gateway.ParseFillInstructions(context.Background(), "instructions", sampleFields)

	// Scalars are stringified, nested objects dropped.
	assert.Equal(t, map[string]string{"Name": "42", "Date": "true"}, mapping)
}

func TestGateway_ParseFillInstructions_FailuresYieldEmptyMapping(t *testing.T) {
	tests := []struct {
		name  string
		model llms.Model
	}{
		{name: "collaborator_error", model: &fakeModel{err: errors.New("quota exhausted")}},
		{name: "malformed_json", model: &fakeModel{response: "Sure! Here are the fields you asked about."}},
		{name: "nil_model", model: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := NewGateway(tt.model)
			mapping := gateway.ParseFillInstructions(context.Background(), "instructions", sampleFields)
			assert.NotNil(t, mapping)
			assert.Empty(t, mapping)
		})
	}
}

func TestGateway_InterpretExtractionQuery(t *testing.T) {
	model := &fakeModel{response: `{
		"content_type": "table",
		"target_pages": [2, 3],
		"keywords": ["price", "total"],
		"output_format": "csv",
		"extraction_focus": "price list table"
	}`}
	gateway := NewGateway(model)

	params := gateway.InterpretExtractionQuery(context.Background(), "get the price table", docstruct.Summary{TotalPages: 5, TableCount: 2})

	assert.Equal(t, ContentTypeTable, params.ContentType)
	assert.Equal(t, []int{2, 3}, params.TargetPages.Pages)
	assert.False(t, params.TargetPages.All)
	assert.Equal(t, []string{"price", "total"}, params.Keywords)
	assert.Equal(t, OutputFormatCSV, params.OutputFormat)
	assert.Equal(t, "price list table", params.ExtractionFocus)
}

func TestGateway_InterpretExtractionQuery_MalformedResponseFallsBack(t *testing.T) {
	model := &fakeModel{response: "I think you want the totals section."}
	gateway := NewGateway(model)

	params := gateway.InterpretExtractionQuery(context.Background(), "find the total", docstruct.Summary{TotalPages: 3})

	assert.Equal(t, ExtractionParameters{
		ContentType:     ContentTypeAll,
		TargetPages:     AllPages(),
		Keywords:        []string{},
		OutputFormat:    OutputFormatText,
		ExtractionFocus: "find the total",
	}, params)
}

func TestGateway_InterpretExtractionQuery_PartialResponseGetsDefaults(t *testing.T) {
	model := &fakeModel{response: `{"content_type": "text"}`}
	gateway := NewGateway(model)

	params := gateway.InterpretExtractionQuery(context.Background(), "read it", docstruct.Summary{TotalPages: 1})

	assert.Equal(t, ContentTypeText, params.ContentType)
	assert.True(t, params.TargetPages.All)
	assert.Equal(t, OutputFormatText, params.OutputFormat)
	assert.Equal(t, []string{}, params.Keywords)
	assert.Equal(t, "read it", params.ExtractionFocus)
}

func TestGateway_InterpretExtractionQuery_PromptCarriesCounts(t *testing.T) {
	model := &fakeModel{response: `{}`}
	gateway := NewGateway(model)

	gateway.InterpretExtractionQuery(context.Background(), "q", docstruct.Summary{TotalPages: 7, TableCount: 4, BlockCount: 12})

	require.NotEmpty(t, model.prompts)
	assert.Contains(t, model.prompts[0], "7 pages")
	assert.Contains(t, model.prompts[0], "4 tables")
	assert.Contains(t, model.prompts[0], "12 text blocks")
}

func TestGateway_SummarizeExtraction(t *testing.T) {
	gateway := NewGateway(&fakeModel{response: "  A short summary.  "})

	summary := gateway.SummarizeExtraction(context.Background(), "long content", 50)

	assert.Equal(t, "A short summary.", summary)
}

func TestGateway_SummarizeExtraction_FailureIsSoft(t *testing.T) {
	gateway := NewGateway(&fakeModel{err: errors.New("overloaded")})

	summary := gateway.SummarizeExtraction(context.Background(), "content", 50)

	assert.Equal(t, "Summary generation failed", summary)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare_json", input: `{"a": 1}`, want: `{"a": 1}`},
		{name: "json_fence", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "plain_fence", input: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "fence_with_prose", input: "Here you go:\n```json\n{\"a\": 1}\n```\nLet me know!", want: `{"a": 1}`},
		{name: "surrounding_whitespace", input: "  {\"a\": 1}\n", want: `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.input))
		})
	}
}

func TestPageSelection_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantAll   bool
		wantPages []int
	}{
		{name: "all_string", input: `"all"`, wantAll: true},
		{name: "page_array", input: `[1, 2, 3]`, wantPages: []int{1, 2, 3}},
		{name: "float_pages", input: `[1.0, 4.0]`, wantPages: []int{1, 4}},
		{name: "empty_array", input: `[]`, wantAll: true},
		{name: "garbage_degrades_to_all", input: `{"first": 1}`, wantAll: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sel PageSelection
			require.NoError(t, sel.UnmarshalJSON([]byte(tt.input)))
			assert.Equal(t, tt.wantAll, sel.All)
			assert.Equal(t, tt.wantPages, sel.Pages)
		})
	}
}

func TestPageSelection_Resolve(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, AllPages().Resolve(3))
	assert.Equal(t, []int{2}, PageSelection{Pages: []int{2, 9}}.Resolve(4))
	assert.Empty(t, PageSelection{Pages: []int{10}}.Resolve(4))
}
