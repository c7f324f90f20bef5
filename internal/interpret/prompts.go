package interpret

import (
	"fmt"
	"strings"

	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/forms"
)

// fillInstructionsPrompt asks the model to map free-text instructions onto
// the detected field labels.
func fillInstructionsPrompt(instructions string, fields []forms.FieldCandidate) string {
	var fieldInfo strings.Builder
	for i, field := range fields {
		label := field.Label
		if label == "" {
			label = fmt.Sprintf("Field %d", i+1)
		}
		fmt.Fprintf(&fieldInfo, "- %s: %s\n", label, field.Type)
	}

	return fmt.Sprintf(`You are a form-filling assistant. Parse the user's instructions and map them to form fields.

Available form fields:
%s
User instructions: %q

Return a JSON object mapping field labels to their values. Use exact field labels as keys.
If a date is mentioned as "today", use the current date in YYYY-MM-DD format.
If a field is not mentioned, don't include it in the response.

Example format:
{
    "Name": "John Doe",
    "Address": "123 Main St",
    "Date": "2024-01-15"
}

Return only the JSON object, no additional text.`, fieldInfo.String(), instructions)
}

// extractionQueryPrompt asks the model to turn a free-text extraction query
// into structured parameters, given the document's inventory counts.
func extractionQueryPrompt(query string, summary docstruct.Summary) string {
	return fmt.Sprintf(`You are a document extraction assistant. Analyze the user's extraction query and determine what they want.

Document has:
- %d pages
- %d tables
- %d text blocks

User query: %q

Determine:
1. What type of content to extract (table, text, specific data)
2. Which pages to target (all, specific pages, or auto-detect)
3. What output format would be best (text, markdown, csv, json)
4. Any specific patterns or keywords to look for

Return a JSON object with this structure:
{
    "content_type": "table|text|data|all",
    "target_pages": [1, 2, 3] or "all",
    "keywords": ["keyword1", "keyword2"],
    "output_format": "text|markdown|csv|json",
    "extraction_focus": "brief description of what to extract"
}

Return only the JSON object, no additional text.`, summary.TotalPages, summary.TableCount, summary.BlockCount, query)
}

// summaryPrompt asks for a bounded-length summary of extracted content.
func summaryPrompt(content string, maxWords int) string {
	const maxInputChars = 5000
	if len(content) > maxInputChars {
		content = content[:maxInputChars]
	}
	return fmt.Sprintf(`Summarize the following extracted content in %d words or less:

%s

Provide a concise summary focusing on the key information.`, maxWords, content)
}
