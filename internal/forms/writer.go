package forms

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Writer is the field-writing collaborator: it applies a label→value mapping
// to a document's form-data layer and returns the path of the written
// document. The pipeline computes mappings but never mutates documents
// itself.
type Writer interface {
	Fill(ctx context.Context, path string, fields []FieldCandidate, mapping map[string]string) (string, error)
}

// UnimplementedWriter is the default Writer. Real form mutation requires an
// AcroForm-aware collaborator that does not exist yet; rather than fake a
// filled document, this writer reports the original path unchanged.
type UnimplementedWriter struct {
	log *logrus.Entry
}

// NewUnimplementedWriter creates the placeholder writer.
func NewUnimplementedWriter() *UnimplementedWriter {
	return &UnimplementedWriter{log: logrus.WithField("component", "forms")}
}

// Fill logs the mapping it would have applied and returns the input path.
func (w *UnimplementedWriter) Fill(_ context.Context, path string, _ []FieldCandidate, mapping map[string]string) (string, error) {
	w.log.WithFields(logrus.Fields{
		"path":   path,
		"fields": len(mapping),
	}).Warn("PDF form writing not implemented, returning original document")
	return path, nil
}
