package formats

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/claude/planlift/internal/draft"
)

const docxExtractorVersion = "extract-docx/1"

// extractDOCX pulls paragraph text out of word/document.xml. Each
// paragraph becomes one line; explicit breaks inside a paragraph also
// split.
func extractDOCX(data []byte) (*Extraction, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx package: %w", err)
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening document part: %w", err)
			}
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("no word/document.xml in package")
	}
	defer doc.Close()

	lines, err := docxParagraphs(doc)
	if err != nil {
		return nil, err
	}
	return &Extraction{
		Lines:            lines,
		ExtractorVersion: docxExtractorVersion,
		ConfidenceBase:   0.95,
	}, nil
}

// docxParagraphs streams the document XML, flushing a line at every
// paragraph end (w:p) and explicit break (w:br).
func docxParagraphs(r io.Reader) ([]draft.SourceLine, error) {
	dec := xml.NewDecoder(r)
	var lines []draft.SourceLine
	var cur strings.Builder
	inText := false

	flush := func() {
		lines = append(lines, draft.SourceLine{Text: cur.String()})
		cur.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "cr":
				flush()
			case "tab":
				cur.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	return lines, nil
}

// zipHasEntry is a sniff helper shared with Detect.
func zipHasEntry(data []byte, name string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
