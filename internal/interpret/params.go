package interpret

import (
	"encoding/json"
	"strings"
)

// ContentType names what kind of content an extraction query targets.
type ContentType string

const (
	ContentTypeTable ContentType = "table"
	ContentTypeText  ContentType = "text"
	ContentTypeData  ContentType = "data"
	ContentTypeAll   ContentType = "all"
)

// OutputFormat names the rendering requested for extracted content.
type OutputFormat string

const (
	OutputFormatText     OutputFormat = "text"
	OutputFormatMarkdown OutputFormat = "markdown"
	OutputFormatCSV      OutputFormat = "csv"
	OutputFormatJSON     OutputFormat = "json"
)

// ValidOutputFormat reports whether s is a known output format.
func ValidOutputFormat(s string) bool {
	switch OutputFormat(s) {
	case OutputFormatText, OutputFormatMarkdown, OutputFormatCSV, OutputFormatJSON:
		return true
	default:
		return false
	}
}

// PageSelection is either "all pages" or an explicit page list. The
// interpreter's JSON may carry the string "all" or an array of numbers;
// anything unrecognizable degrades to "all".
type PageSelection struct {
	All   bool
	Pages []int
}

// AllPages is the selection covering every page.
func AllPages() PageSelection {
	return PageSelection{All: true}
}

// UnmarshalJSON accepts "all", an integer array, or a float array.
func (p *PageSelection) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.All = true
		p.Pages = nil
		return nil
	}

	var pages []float64
	if err := json.Unmarshal(data, &pages); err == nil {
		p.Pages = p.Pages[:0]
		for _, v := range pages {
			if v >= 1 {
				p.Pages = append(p.Pages, int(v))
			}
		}
		p.All = len(p.Pages) == 0
		return nil
	}

	// Tolerate shapes we did not ask for rather than failing the parse.
	p.All = true
	p.Pages = nil
	return nil
}

// MarshalJSON renders "all" or the explicit page list.
func (p PageSelection) MarshalJSON() ([]byte, error) {
	if p.All || len(p.Pages) == 0 {
		return json.Marshal("all")
	}
	return json.Marshal(p.Pages)
}

// Resolve expands the selection against the document's page count.
func (p PageSelection) Resolve(totalPages int) []int {
	if p.All || len(p.Pages) == 0 {
		pages := make([]int, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			pages = append(pages, i)
		}
		return pages
	}
	pages := make([]int, 0, len(p.Pages))
	for _, page := range p.Pages {
		if page >= 1 && page <= totalPages {
			pages = append(pages, page)
		}
	}
	return pages
}

// ExtractionParameters is the fully-populated interpretation of a free-text
// extraction query. Every field has a defined default, so a partially
// answered prompt still yields usable parameters.
type ExtractionParameters struct {
	ContentType     ContentType   `json:"content_type"`
	TargetPages     PageSelection `json:"target_pages"`
	Keywords        []string      `json:"keywords"`
	OutputFormat    OutputFormat  `json:"output_format"`
	ExtractionFocus string        `json:"extraction_focus"`
}

// FallbackParameters is the fixed degraded interpretation: extract
// everything, and let the raw query stand in as the focus.
func FallbackParameters(query string) ExtractionParameters {
	return ExtractionParameters{
		ContentType:     ContentTypeAll,
		TargetPages:     AllPages(),
		Keywords:        []string{},
		OutputFormat:    OutputFormatText,
		ExtractionFocus: query,
	}
}

// applyDefaults fills any gap the interpreter left, using the query as the
// fallback focus.
func (p *ExtractionParameters) applyDefaults(query string) {
	switch p.ContentType {
	case ContentTypeTable, ContentTypeText, ContentTypeData, ContentTypeAll:
	default:
		p.ContentType = ContentTypeAll
	}
	switch p.OutputFormat {
	case OutputFormatText, OutputFormatMarkdown, OutputFormatCSV, OutputFormatJSON:
	default:
		p.OutputFormat = OutputFormatText
	}
	if !p.TargetPages.All && len(p.TargetPages.Pages) == 0 {
		p.TargetPages = AllPages()
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if strings.TrimSpace(p.ExtractionFocus) == "" {
		p.ExtractionFocus = query
	}
}
