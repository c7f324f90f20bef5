package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/interpret"
)

var sampleTables = []docstruct.Table{
	{
		Page:    1,
		Headers: []string{"Item", "Price"},
		Rows: [][]string{
			{"Widget", "9.99"},
			{"Gadget, deluxe", "24.50"},
		},
	},
	{
		Page:    3,
		Headers: []string{"Name"},
		Rows:    [][]string{{"Ada"}},
	},
}

func TestTableFormatter_CSV(t *testing.T) {
	content, err := TableFormatter{}.Format(sampleTables, interpret.OutputFormatCSV)
	require.NoError(t, err)

	want := "Item,Price\n" +
		"Widget,9.99\n" +
		"\"Gadget, deluxe\",24.50\n" +
		"\n" +
		"Name\n" +
		"Ada"
	assert.Equal(t, want, content)
}

func TestTableFormatter_Markdown(t *testing.T) {
	content, err := TableFormatter{}.Format(sampleTables[:1], interpret.OutputFormatMarkdown)
	require.NoError(t, err)

	want := "### Table (page 1)\n" +
		"\n" +
		"| Item | Price |\n" +
		"| --- | --- |\n" +
		"| Widget | 9.99 |\n" +
		"| Gadget, deluxe | 24.50 |"
	assert.Equal(t, want, content)
}

func TestTableFormatter_MarkdownEscapesPipes(t *testing.T) {
	tables := []docstruct.Table{{
		Page:    2,
		Headers: []string{"Expr"},
		Rows:    [][]string{{"a | b"}},
	}}

	content, err := TableFormatter{}.Format(tables, interpret.OutputFormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, content, `| a \| b |`)
}

func TestTableFormatter_MarkdownPadsRaggedRows(t *testing.T) {
	tables := []docstruct.Table{{
		Page:    1,
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"only"}},
	}}

	content, err := TableFormatter{}.Format(tables, interpret.OutputFormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, content, "| only |  |  |")
}

func TestTableFormatter_JSON(t *testing.T) {
	content, err := TableFormatter{}.Format(sampleTables, interpret.OutputFormatJSON)
	require.NoError(t, err)

	var decoded []docstruct.Table
	require.NoError(t, json.Unmarshal([]byte(content), &decoded))
	assert.Equal(t, sampleTables, decoded)
}

func TestTableFormatter_Text(t *testing.T) {
	content, err := TableFormatter{}.Format(sampleTables[:1], interpret.OutputFormatText)
	require.NoError(t, err)

	assert.Contains(t, content, "Table (page 1):")
	assert.Contains(t, content, "Item\tPrice")
	assert.Contains(t, content, "Widget\t9.99")
}

func TestTableFormatter_NoTables(t *testing.T) {
	content, err := TableFormatter{}.Format(nil, interpret.OutputFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "No tables found in the specified pages", content)
}
