package record

import (
	"strings"
	"unicode/utf8"
)

// Page is the raw text of one source page, split into the block-level
// fragments the PDF extractor produced.
type Page struct {
	Blocks []string
}

// Document is the merged, noise-filtered text of a record. Text keeps line
// breaks for range and subject scanning; MergedText has them removed so
// patterns can match phrases that wrap across lines.
type Document struct {
	Text       string
	MergedText string
}

// filterBlock strips the noise patterns from one block, then keeps a line if
// it contains a keyword, or is long enough to be narrative, or continues a
// kept line that is followed by a blank line. A single left-to-right pass with
// one bit of lookback (previousLineSaved) and one bit of lookahead (next line
// blank). The heuristic favors recall: dropping a page number is cheap,
// dropping a narrative sentence is not.
func filterBlock(block string, m Markers) string {
	for _, pattern := range m.NoisePatterns {
		block = pattern.ReplaceAllString(block, "")
	}

	lines := strings.Split(block, "\n")
	var kept []string
	previousLineSaved := false

	for i, line := range lines {
		meetsCondition := false
		for _, keyword := range m.Keywords {
			if strings.Contains(line, keyword) {
				meetsCondition = true
				break
			}
		}
		if !meetsCondition && utf8.RuneCountInString(line) > m.MinNarrativeLen {
			meetsCondition = true
		}

		nextLineBlank := i < len(lines)-1 && lines[i+1] == ""

		if meetsCondition || (previousLineSaved && nextLineBlank) {
			kept = append(kept, line)
			previousLineSaved = true
		} else {
			previousLineSaved = false
		}
	}

	return strings.Join(kept, "\n")
}

// BuildDocument runs the block filter over every page and merges the results,
// blocks separated by a blank line, in page order.
func BuildDocument(pages []Page, m Markers) Document {
	var text strings.Builder

	for _, page := range pages {
		for _, block := range page.Blocks {
			filtered := filterBlock(block, m)
			if filtered == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(filtered)
		}
	}

	merged := strings.ReplaceAll(text.String(), "\n", "")

	return Document{Text: text.String(), MergedText: merged}
}
