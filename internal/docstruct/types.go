package docstruct

// BoundingBox locates an element on its page in PDF user-space units.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextElement is one positioned run of text on a page, typically a visual row.
type TextElement struct {
	Content string      `json:"content"`
	Box     BoundingBox `json:"bbox"`
}

// PageStructure is the per-page element inventory.
type PageStructure struct {
	PageNumber int           `json:"page_number"`
	Elements   []TextElement `json:"elements"`
}

// Table is a rectangular data region detected by the structure analyzer.
type Table struct {
	Page    int        `json:"page"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// TextBlock is a contiguous block of flowing text.
type TextBlock struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// DocumentStructure is the analyzer's full inventory of a document. An
// analyzer may legitimately return empty collections (degraded mode), but
// TotalPages must always be accurate.
type DocumentStructure struct {
	TotalPages int               `json:"total_pages"`
	Pages      []PageStructure   `json:"pages"`
	Tables     []Table           `json:"tables"`
	TextBlocks []TextBlock       `json:"text_blocks"`
	Metadata   map[string]string `json:"metadata"`
}

// Summary condenses the structure for prompt construction.
type Summary struct {
	TotalPages int `json:"total_pages"`
	TableCount int `json:"table_count"`
	BlockCount int `json:"block_count"`
}

// Summarize returns the prompt-facing counts for this structure.
func (d *DocumentStructure) Summarize() Summary {
	return Summary{
		TotalPages: d.TotalPages,
		TableCount: len(d.Tables),
		BlockCount: len(d.TextBlocks),
	}
}

// TablesForPages filters tables down to the requested pages. A nil or empty
// page list means all pages.
func (d *DocumentStructure) TablesForPages(pages []int) []Table {
	if len(pages) == 0 {
		return d.Tables
	}
	wanted := make(map[int]bool, len(pages))
	for _, p := range pages {
		wanted[p] = true
	}
	tables := make([]Table, 0, len(d.Tables))
	for _, t := range d.Tables {
		if wanted[t.Page] {
			tables = append(tables, t)
		}
	}
	return tables
}
