package docstruct

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/sirupsen/logrus"
)

// rowTolerance groups positioned text runs into visual rows; runs whose Y
// coordinates differ by less than this are considered the same row.
const rowTolerance = 2.0

// LightweightAnalyzer is the default Analyzer. It builds the inventory from
// the PDF's embedded text layer without any layout model: accurate page
// count and metadata, row-level text elements, per-page text blocks, and no
// table detection (an accepted degraded mode).
type LightweightAnalyzer struct {
	maxFileSize int64
	log         *logrus.Entry
}

// NewLightweightAnalyzer creates an analyzer that rejects files above maxFileSize.
func NewLightweightAnalyzer(maxFileSize int64) *LightweightAnalyzer {
	return &LightweightAnalyzer{
		maxFileSize: maxFileSize,
		log:         logrus.WithField("component", "docstruct"),
	}
}

// Analyze builds the document structure inventory.
func (a *LightweightAnalyzer) Analyze(ctx context.Context, path string) (*DocumentStructure, error) {
	if err := a.validate(path); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	structure := &DocumentStructure{
		TotalPages: a.pageCount(path, reader),
		Metadata:   extractMetadata(reader),
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		elements := rowElements(page)
		if len(elements) > 0 {
			structure.Pages = append(structure.Pages, PageStructure{
				PageNumber: pageNum,
				Elements:   elements,
			})
		}

		if text, err := page.GetPlainText(nil); err == nil && strings.TrimSpace(text) != "" {
			structure.TextBlocks = append(structure.TextBlocks, TextBlock{
				Page:    pageNum,
				Content: text,
			})
		}
	}

	a.log.WithFields(logrus.Fields{
		"path":  path,
		"pages": structure.TotalPages,
	}).Debug("document analysis complete")

	return structure, nil
}

// ExportMarkdown renders the embedded text layer page by page.
func (a *LightweightAnalyzer) ExportMarkdown(ctx context.Context, path string) (string, error) {
	if err := a.validate(path); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		fmt.Fprintf(&builder, "# Page %d\n\n%s\n\n", pageNum, text)
	}
	return builder.String(), nil
}

// pageCount prefers pdfcpu's count, which stays accurate for documents whose
// text layer ledongthuc cannot walk.
func (a *LightweightAnalyzer) pageCount(path string, reader *pdf.Reader) int {
	if count, err := api.PageCountFile(path); err == nil && count > 0 {
		return count
	}
	return reader.NumPage()
}

func (a *LightweightAnalyzer) validate(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if a.maxFileSize > 0 && info.Size() > a.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), a.maxFileSize)
	}
	return nil
}

// rowElements groups a page's positioned text runs into visual rows.
func rowElements(page pdf.Page) []TextElement {
	content := page.Content()
	texts := make([]pdf.Text, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	sort.Slice(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y // top of page first
		}
		return texts[i].X < texts[j].X
	})

	var elements []TextElement
	var row []pdf.Text
	flush := func() {
		if len(row) == 0 {
			return
		}
		elements = append(elements, rowToElement(row))
		row = row[:0]
	}

	for _, t := range texts {
		if len(row) > 0 && abs(row[0].Y-t.Y) > rowTolerance {
			flush()
		}
		row = append(row, t)
	}
	flush()

	return elements
}

func rowToElement(row []pdf.Text) TextElement {
	var builder strings.Builder
	minX, maxX := row[0].X, row[0].X+row[0].W
	var height float64
	for i, t := range row {
		if i > 0 && needsSpace(row[i-1], t) {
			builder.WriteString(" ")
		}
		builder.WriteString(t.S)
		if t.X < minX {
			minX = t.X
		}
		if t.X+t.W > maxX {
			maxX = t.X + t.W
		}
		if t.FontSize > height {
			height = t.FontSize
		}
	}
	return TextElement{
		Content: builder.String(),
		Box: BoundingBox{
			X:      minX,
			Y:      row[0].Y,
			Width:  maxX - minX,
			Height: height,
		},
	}
}

// needsSpace inserts a separator when two runs have a visible horizontal gap.
func needsSpace(prev, cur pdf.Text) bool {
	return cur.X-(prev.X+prev.W) > 1.0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// extractMetadata reads the document info dictionary. The ledongthuc Value
// API panics on malformed objects, so extraction is wrapped in a recover.
func extractMetadata(reader *pdf.Reader) map[string]string {
	metadata := make(map[string]string)

	defer func() {
		_ = recover()
	}()

	trailer := reader.Trailer()
	if trailer.IsNull() {
		return metadata
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return metadata
	}

	for _, key := range []string{"Title", "Author", "Subject", "Producer", "Creator", "CreationDate"} {
		if v := info.Key(key); !v.IsNull() {
			if s := strings.TrimSpace(v.String()); s != "" {
				metadata[strings.ToLower(key)] = s
			}
		}
	}
	return metadata
}
