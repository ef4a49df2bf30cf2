package refiner

import (
	"context"
	"fmt"

	"github.com/yungbote/dossier-backend/internal/clients/openai"
)

// TextRefiner is the external refinement service contract: split a chunk
// verbatim into marker-delimited sections of at most maxTokens tokens.
type TextRefiner interface {
	RefineChunk(ctx context.Context, chunk string, maxTokens int) (string, error)
}

const refineSystemPrompt = "You are a precise text refinement and sectioning assistant."

const refineUserTemplate = `Break the following text chunk into meaningful sections of maximum %d tokens each.
Each section must be a complete, coherent unit of information.
Preserve ALL factual information, technical terms, numbers, citations and structural elements exactly.
Do not reorder, summarize or invent content.

Format each section as:
[SECTION_START]
<section content>
[SECTION_END]

Text chunk to refine and section:
%s

Refined and sectioned text:`

type llmRefiner struct {
	ai openai.Client
}

// NewLLMRefiner adapts the OpenAI client to the TextRefiner contract.
func NewLLMRefiner(ai openai.Client) TextRefiner {
	return &llmRefiner{ai: ai}
}

func (r *llmRefiner) RefineChunk(ctx context.Context, chunk string, maxTokens int) (string, error) {
	user := fmt.Sprintf(refineUserTemplate, maxTokens, chunk)
	return r.ai.GenerateText(ctx, refineSystemPrompt, user)
}
