package docstruct

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

const (
	// scanSamplePages is how many leading pages the classifier samples.
	scanSamplePages = 3
	// scanWordsPerPageThreshold: below this embedded-word density a document
	// is treated as scanned. The comparison is strict, so exactly 50
	// words/page still counts as digital.
	scanWordsPerPageThreshold = 50.0
)

// PageTextSource provides the embedded (non-OCR) text of a document's
// leading pages.
type PageTextSource interface {
	LeadingPageTexts(path string, maxPages int) ([]string, error)
}

// ScannedClassifier decides whether a document needs OCR at all, based on
// embedded text density.
type ScannedClassifier struct {
	source PageTextSource
	log    *logrus.Entry
}

// NewScannedClassifier creates a classifier over the embedded text layer.
func NewScannedClassifier() *ScannedClassifier {
	return NewScannedClassifierWithSource(embeddedTextSource{})
}

// NewScannedClassifierWithSource creates a classifier with a custom text
// source, used by tests to inject synthetic densities.
func NewScannedClassifierWithSource(source PageTextSource) *ScannedClassifier {
	return &ScannedClassifier{
		source: source,
		log:    logrus.WithField("component", "docstruct"),
	}
}

// IsScanned samples the first min(3, totalPages) pages and classifies the
// document as scanned when the embedded word density falls below the
// threshold. Any extraction failure yields false: a scanned document
// misclassified as digital degrades to poor text instead of crashing the
// pipeline.
func (c *ScannedClassifier) IsScanned(path string) bool {
	texts, err := c.source.LeadingPageTexts(path, scanSamplePages)
	if err != nil || len(texts) == 0 {
		if err != nil {
			c.log.WithError(err).Debug("scanned detection failed, assuming digital")
		}
		return false
	}

	totalWords := 0
	for _, text := range texts {
		totalWords += len(strings.Fields(text))
	}

	wordsPerPage := float64(totalWords) / float64(len(texts))
	scanned := wordsPerPage < scanWordsPerPageThreshold

	c.log.WithFields(logrus.Fields{
		"words_per_page": wordsPerPage,
		"scanned":        scanned,
	}).Debug("scanned detection")

	return scanned
}

// embeddedTextSource reads page text through ledongthuc/pdf.
type embeddedTextSource struct{}

func (embeddedTextSource) LeadingPageTexts(path string, maxPages int) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = errRecovered{}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	for pageNum := 1; pageNum <= pages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

type errRecovered struct{}

func (errRecovered) Error() string { return "text extraction panicked" }
