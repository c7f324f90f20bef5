package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdfpilot/pdfpilot/internal/ocr"
)

// Rasterizer produces per-page images suitable for OCR. A nil pages slice
// means every page.
type Rasterizer interface {
	PageImages(ctx context.Context, path string, pages []int) ([]ocr.PageImage, error)
}

// imageFilePattern matches pdfcpu's extracted-image naming, which embeds the
// source page number: <base>_<page>_<resource>.<ext>.
var imageFilePattern = regexp.MustCompile(`_(\d+)_[^_]+\.(\w+)$`)

// EmbeddedImageRasterizer pulls the page images already embedded in the PDF.
// Scanned documents carry each page as a single full-page image, so for the
// OCR path this is equivalent to rasterizing.
type EmbeddedImageRasterizer struct {
	conf *model.Configuration
}

func NewEmbeddedImageRasterizer() *EmbeddedImageRasterizer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &EmbeddedImageRasterizer{conf: conf}
}

// PageImages extracts embedded images for the selected pages, ordered by
// page number. Pages without an embedded image are simply absent from the
// result.
func (r *EmbeddedImageRasterizer) PageImages(ctx context.Context, path string, pages []int) ([]ocr.PageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "pdfpilot-pages-")
	if err != nil {
		return nil, fmt.Errorf("failed to create image scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var selected []string
	for _, page := range pages {
		selected = append(selected, strconv.Itoa(page))
	}

	if err := api.ExtractImagesFile(path, dir, selected, r.conf); err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}

	images := make([]ocr.PageImage, 0, len(entries))
	seen := make(map[int]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := imageFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		pageNum, err := strconv.Atoi(match[1])
		if err != nil || seen[pageNum] {
			// One image per page is enough for text recognition.
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		seen[pageNum] = true
		images = append(images, ocr.PageImage{
			PageNumber: pageNum,
			Data:       data,
			Format:     strings.ToLower(match[2]),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].PageNumber < images[j].PageNumber
	})
	return images, nil
}
