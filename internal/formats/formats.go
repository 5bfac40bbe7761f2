// Package formats turns uploaded routine files into the common line
// stream the draft builder consumes. Every adapter produces
// draft.SourceLine values; all dialect knowledge stays in the parser.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/planlift/internal/draft"
)

// ErrUnsupportedSource marks a source type no adapter handles.
var ErrUnsupportedSource = errors.New("unsupported source type")

// Source types accepted by the pipeline.
const (
	TypeText = "text"
	TypeCSV  = "csv"
	TypeXLSX = "xlsx"
	TypeDOCX = "docx"
	TypePDF  = "pdf"
)

// Extraction is an adapter's output: the line stream plus the
// extractor's version stamp and the confidence base the builder should
// start from.
type Extraction struct {
	Lines            []draft.SourceLine
	ExtractorVersion string
	ConfidenceBase   float64
}

// Extract dispatches to the adapter for the given source type.
func Extract(sourceType string, data []byte) (*Extraction, error) {
	switch sourceType {
	case TypeText:
		return extractText(data)
	case TypeCSV:
		return extractCSV(data)
	case TypeXLSX:
		return extractXLSX(data)
	case TypeDOCX:
		return extractDOCX(data)
	case TypePDF:
		return extractPDF(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, sourceType)
	}
}

// Detect sniffs the source type from the filename extension first, then
// the content. Unknown content falls back to plain text.
func Detect(filename string, data []byte) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return TypeCSV
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return TypeXLSX
	case strings.HasSuffix(strings.ToLower(filename), ".docx"):
		return TypeDOCX
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"),
		strings.HasSuffix(strings.ToLower(filename), ".pdf.json"):
		return TypePDF
	case strings.HasSuffix(strings.ToLower(filename), ".txt"),
		strings.HasSuffix(strings.ToLower(filename), ".md"):
		return TypeText
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		return TypePDF
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		if zipHasEntry(data, "word/document.xml") {
			return TypeDOCX
		}
		return TypeXLSX
	}
	if looksDelimited(data) {
		return TypeCSV
	}
	return TypeText
}

// looksDelimited reports content where most non-empty lines carry the
// same field separator, which is how a header-bearing export reads.
func looksDelimited(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	lines := strings.Split(string(sample), "\n")
	total, delimited := 0, 0
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		total++
		if strings.Count(ln, ",") >= 2 || strings.Count(ln, ";") >= 2 || strings.Contains(ln, "\t") {
			delimited++
		}
	}
	return total >= 2 && delimited*2 > total
}
