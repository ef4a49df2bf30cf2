package chunking

// ElementCategory tags a structural element produced by the external
// document partitioner.
type ElementCategory string

const (
	CategoryTitle         ElementCategory = "title"
	CategoryNarrativeText ElementCategory = "narrative_text"
	CategoryFigureCaption ElementCategory = "figure_caption"
	CategoryListItem      ElementCategory = "list_item"
	CategoryTable         ElementCategory = "table"
	CategoryImage         ElementCategory = "image"
)

// Element is one structural span of a document, in reading order.
type Element struct {
	Category ElementCategory `json:"category"`
	Text     string          `json:"text"`
}

// ChunkSettings is a winning chunking configuration: the character budget,
// the combine threshold for small chunks, and the overlap carried between
// adjacent chunks.
type ChunkSettings struct {
	MaxCharacters     int `json:"max_characters"`
	CombineUnderChars int `json:"combine_under_chars"`
	Overlap           int `json:"overlap"`
}
