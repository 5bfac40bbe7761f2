package formats

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/claude/planlift/internal/draft"
)

const (
	pdfExtractorVersion = "extract-pdf/3"
	pdfMaxPages         = 40
	// Glyph runs whose baselines differ by less than this share a line.
	pdfLineTolerance = 2.5
)

// Glyph is one positioned text run from a digital PDF's content stream:
// the decoded string plus the translation part of its 2D transform.
// Extraction happens upstream; this adapter only reassembles reading
// order. Scanned PDFs yield almost no glyphs and fail the coverage
// gates downstream.
type Glyph struct {
	Page int     `json:"page"`
	Str  string  `json:"str"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type pdfPayload struct {
	Pages  int     `json:"pages"`
	Glyphs []Glyph `json:"glyphs"`
}

// extractPDF reassembles lines from positioned glyph runs: group by
// page, bucket by baseline within tolerance, order buckets top-down and
// runs left-to-right.
func extractPDF(data []byte) (*Extraction, error) {
	var payload pdfPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding glyph payload: %w", err)
	}
	if payload.Pages > pdfMaxPages {
		return nil, fmt.Errorf("pdf has %d pages, limit is %d", payload.Pages, pdfMaxPages)
	}

	byPage := map[int][]Glyph{}
	for _, g := range payload.Glyphs {
		if strings.TrimSpace(g.Str) == "" {
			continue
		}
		byPage[g.Page] = append(byPage[g.Page], g)
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var lines []draft.SourceLine
	for _, p := range pages {
		for _, text := range assembleLines(byPage[p]) {
			lines = append(lines, draft.SourceLine{Text: text, Page: p})
		}
	}
	return &Extraction{
		Lines:            lines,
		ExtractorVersion: pdfExtractorVersion,
		ConfidenceBase:   0.75,
	}, nil
}

type pdfLine struct {
	y     float64
	runs  []Glyph
	count int
}

// assembleLines buckets one page's glyphs into baselines. PDF origin is
// bottom-left, so larger Y is higher on the page.
func assembleLines(glyphs []Glyph) []string {
	var buckets []pdfLine
	for _, g := range glyphs {
		placed := false
		for i := range buckets {
			if abs(buckets[i].y-g.Y) <= pdfLineTolerance {
				buckets[i].runs = append(buckets[i].runs, g)
				// Running mean keeps the baseline stable on wavy extractions.
				buckets[i].count++
				buckets[i].y += (g.Y - buckets[i].y) / float64(buckets[i].count)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, pdfLine{y: g.Y, runs: []Glyph{g}, count: 1})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].y > buckets[j].y })

	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.runs, func(i, j int) bool { return b.runs[i].X < b.runs[j].X })
		var sb strings.Builder
		for i, r := range b.runs {
			if i > 0 && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(r.Str, " ") {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.Str)
		}
		out = append(out, strings.TrimSpace(sb.String()))
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
