package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/claude/planlift/internal/draft"
)

const textExtractorVersion = "extract-text/1"

// extractText splits a UTF-8 paste or .txt upload into lines. The BOM
// and carriage returns common in exported text are stripped.
func extractText(data []byte) (*Extraction, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var lines []draft.SourceLine
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, draft.SourceLine{
			Text: strings.TrimRight(scanner.Text(), "\r"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning text: %w", err)
	}
	return &Extraction{
		Lines:            lines,
		ExtractorVersion: textExtractorVersion,
		ConfidenceBase:   1.0,
	}, nil
}
