package chunking

import "strings"

// Grouper turns ordered structural elements into ordered text chunks under a
// given configuration. Chunk order follows element order.
type Grouper interface {
	Group(elements []Element, settings ChunkSettings) []string
}

// TitleGrouper starts a fresh chunk at every title element, packs following
// elements up to the character budget, merges undersized chunks into their
// predecessor, then prefixes each chunk with the tail of the previous one as
// overlap context.
type TitleGrouper struct{}

func NewTitleGrouper() *TitleGrouper { return &TitleGrouper{} }

func (g *TitleGrouper) Group(elements []Element, settings ChunkSettings) []string {
	if len(elements) == 0 {
		return nil
	}
	maxChars := settings.MaxCharacters
	if maxChars <= 0 {
		return nil
	}

	var raw []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			raw = append(raw, cur.String())
			cur.Reset()
		}
	}

	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		startsNew := el.Category == CategoryTitle && cur.Len() > 0
		overflows := cur.Len() > 0 && cur.Len()+len("\n\n")+len(text) > maxChars
		if startsNew || overflows {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(text)
	}
	flush()

	combined := combineSmall(raw, settings.CombineUnderChars, maxChars)
	return applyOverlap(combined, settings.Overlap)
}

// combineSmall merges a chunk into its predecessor while the predecessor is
// under the combine threshold and the merge stays within the budget.
func combineSmall(chunks []string, combineUnder, maxChars int) []string {
	if combineUnder <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if n := len(out); n > 0 &&
			len(out[n-1]) < combineUnder &&
			len(out[n-1])+len("\n\n")+len(c) <= maxChars {
			out[n-1] = out[n-1] + "\n\n" + c
			continue
		}
		out = append(out, c)
	}
	return out
}

// applyOverlap prepends the last overlap characters of each chunk to its
// successor so context survives the boundary.
func applyOverlap(chunks []string, overlap int) []string {
	if overlap <= 0 || len(chunks) < 2 {
		return chunks
	}
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev
		if len(prev) > overlap {
			tail = prev[len(prev)-overlap:]
		}
		out[i] = tail + "\n\n" + chunks[i]
	}
	return out
}
