package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/interpret"
)

const noTablesMessage = "No tables found in the specified pages"

// TableFormatter renders extracted tables in the caller's requested format.
type TableFormatter struct{}

// Format renders tables as CSV, GitHub-flavored Markdown, JSON, or a plain
// text dump. Unknown formats fall back to text.
func (f TableFormatter) Format(tables []docstruct.Table, format interpret.OutputFormat) (string, error) {
	if len(tables) == 0 {
		return noTablesMessage, nil
	}

	switch format {
	case interpret.OutputFormatCSV:
		return f.formatCSV(tables)
	case interpret.OutputFormatMarkdown:
		return f.formatMarkdown(tables), nil
	case interpret.OutputFormatJSON:
		return f.formatJSON(tables)
	default:
		return f.formatText(tables), nil
	}
}

// formatCSV emits one CSV block per table, header row first, blocks
// separated by a blank line.
func (f TableFormatter) formatCSV(tables []docstruct.Table) (string, error) {
	var buf strings.Builder
	for i, table := range tables {
		if i > 0 {
			buf.WriteString("\n")
		}
		w := csv.NewWriter(&buf)
		if len(table.Headers) > 0 {
			if err := w.Write(table.Headers); err != nil {
				return "", fmt.Errorf("failed to encode table headers: %w", err)
			}
		}
		for _, row := range table.Rows {
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("failed to encode table row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("failed to encode table: %w", err)
		}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// formatMarkdown emits one pipe table per source table.
func (f TableFormatter) formatMarkdown(tables []docstruct.Table) string {
	blocks := make([]string, 0, len(tables))
	for _, table := range tables {
		width := len(table.Headers)
		for _, row := range table.Rows {
			if len(row) > width {
				width = len(row)
			}
		}
		if width == 0 {
			continue
		}

		var buf strings.Builder
		fmt.Fprintf(&buf, "### Table (page %d)\n\n", table.Page)
		writeMarkdownRow(&buf, table.Headers, width)
		buf.WriteString("|")
		for i := 0; i < width; i++ {
			buf.WriteString(" --- |")
		}
		buf.WriteString("\n")
		for _, row := range table.Rows {
			writeMarkdownRow(&buf, row, width)
		}
		blocks = append(blocks, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func writeMarkdownRow(buf *strings.Builder, cells []string, width int) {
	buf.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = strings.ReplaceAll(cells[i], "|", "\\|")
		}
		fmt.Fprintf(buf, " %s |", cell)
	}
	buf.WriteString("\n")
}

func (f TableFormatter) formatJSON(tables []docstruct.Table) (string, error) {
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tables: %w", err)
	}
	return string(data), nil
}

// formatText is the readable fallback: tab-separated cells, one row per
// line, tables separated by a page marker.
func (f TableFormatter) formatText(tables []docstruct.Table) string {
	var buf strings.Builder
	for i, table := range tables {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "Table (page %d):\n", table.Page)
		if len(table.Headers) > 0 {
			buf.WriteString(strings.Join(table.Headers, "\t"))
			buf.WriteString("\n")
		}
		for _, row := range table.Rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteString("\n")
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
