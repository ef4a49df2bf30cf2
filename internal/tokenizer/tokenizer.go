package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens the same way the refinement model does, so the
// section floor is enforced against real token budgets.
type Counter interface {
	Count(text string) int
}

const defaultEncoding = "o200k_base"

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// New returns a Counter backed by a tiktoken encoding. An empty name selects
// the o200k_base encoding.
func New(encoding string) (Counter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
