package formats

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxExtractorVersion = "extract-xlsx/2"

// extractXLSX reads the first sheet of a workbook and feeds its rows
// through the same header mapping the CSV path uses.
func extractXLSX(data []byte) (*Extraction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	lines, err := rowsToLines(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	return &Extraction{
		Lines:            lines,
		ExtractorVersion: xlsxExtractorVersion,
		ConfidenceBase:   1.0,
	}, nil
}
