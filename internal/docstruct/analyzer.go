package docstruct

import "context"

// Analyzer is the structure-analysis collaborator contract. The pipeline
// tolerates analyzers that return empty element collections, but an Analyze
// error is fatal to the workflow that requested it: without at least an
// accurate page count there is nothing to orchestrate.
type Analyzer interface {
	// Analyze produces the page/table/text-block inventory for a document.
	Analyze(ctx context.Context, path string) (*DocumentStructure, error)

	// ExportMarkdown renders the document's embedded text as Markdown with
	// per-page headings.
	ExportMarkdown(ctx context.Context, path string) (string, error)
}
