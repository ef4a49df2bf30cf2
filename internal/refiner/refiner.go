package refiner

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/registry"
	"github.com/yungbote/dossier-backend/internal/sections"
	"github.com/yungbote/dossier-backend/internal/tokenizer"
)

// Section is one token-bounded subdivision of a chunk. ID follows
// {project}-{stable_id}-{subfolder_type}-chunk{i}-section{j} with 1-based
// indices in original order.
type Section struct {
	ID         string
	Content    string
	TokenCount int
}

type Options struct {
	MaxRetries          int
	RetryDelay          time.Duration
	MaxTokensPerSection int
	MinTokensPerSection int
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:          3,
		RetryDelay:          2 * time.Second,
		MaxTokensPerSection: 800,
		MinTokensPerSection: 50,
	}
}

// Result summarizes one document refinement run.
type Result struct {
	StableID      string
	Sections      []Section
	SkippedChunks []int
}

// Engine subdivides ordered chunks into token-bounded sections and persists
// them under composite keys. A registry miss for the document is fatal; a
// failing chunk is retried then skipped so the rest of the document still
// processes.
type Engine struct {
	log      *logger.Logger
	registry registry.Service
	llm      TextRefiner
	tokens   tokenizer.Counter
	store    sections.Store
	opts     Options
}

func NewEngine(baseLog *logger.Logger, reg registry.Service, llm TextRefiner, tokens tokenizer.Counter, store sections.Store, opts Options) *Engine {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = DefaultOptions().MaxRetries
	}
	if opts.MaxTokensPerSection <= 0 {
		opts.MaxTokensPerSection = DefaultOptions().MaxTokensPerSection
	}
	if opts.MinTokensPerSection < 0 {
		opts.MinTokensPerSection = DefaultOptions().MinTokensPerSection
	}
	return &Engine{
		log:      baseLog.With("service", "RefinementEngine"),
		registry: reg,
		llm:      llm,
		tokens:   tokens,
		store:    store,
		opts:     opts,
	}
}

func (e *Engine) RefineDocument(ctx context.Context, project, documentName, subfolderType string, chunks []string) (*Result, error) {
	log := e.log.With("project", project, "document", documentName)

	stableID, err := e.registry.GetByName(ctx, project, documentName)
	if err != nil {
		return nil, fmt.Errorf("resolve stable id for document %q: %w", documentName, err)
	}
	suffix := stableID + "-" + subfolderType

	log.Info("Refining chunks", "num_chunks", len(chunks), "stable_id", stableID)

	result := &Result{StableID: stableID}
	for i, chunk := range chunks {
		chunkIndex := i + 1
		secs, err := e.refineChunk(ctx, project, suffix, chunkIndex, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			log.Warn("Skipping chunk after exhausting retries",
				"chunk_index", chunkIndex,
				"max_retries", e.opts.MaxRetries,
				"error", err,
			)
			result.SkippedChunks = append(result.SkippedChunks, chunkIndex)
			continue
		}

		for _, sec := range secs {
			if err := e.store.Save(ctx, sec.ID+".txt", sec.Content); err != nil {
				log.Error("Failed to persist section", "section_id", sec.ID, "error", err)
				continue
			}
			result.Sections = append(result.Sections, sec)
		}
	}

	log.Info("Refinement complete",
		"sections", len(result.Sections),
		"skipped_chunks", len(result.SkippedChunks),
	)
	return result, nil
}

// refineChunk calls the refinement service under the retry budget, parses
// the marker protocol, and drops sections at or below the token floor.
func (e *Engine) refineChunk(ctx context.Context, project, suffix string, chunkIndex int, chunk string) ([]Section, error) {
	var accepted []Section

	err := withRetry(ctx, e.opts.MaxRetries, e.opts.RetryDelay, func() error {
		refined, err := e.llm.RefineChunk(ctx, chunk, e.opts.MaxTokensPerSection)
		if err != nil {
			return err
		}
		parsed := ParseSections(refined)
		if len(parsed) == 0 {
			return fmt.Errorf("refinement output for chunk %d contained no sections", chunkIndex)
		}

		accepted = accepted[:0]
		for j, content := range parsed {
			tokenCount := e.tokens.Count(content)
			if tokenCount <= e.opts.MinTokensPerSection {
				e.log.Debug("Discarding section below token floor",
					"chunk_index", chunkIndex,
					"section_index", j+1,
					"token_count", tokenCount,
				)
				continue
			}
			accepted = append(accepted, Section{
				ID:         fmt.Sprintf("%s-%s-chunk%d-section%d", project, suffix, chunkIndex, j+1),
				Content:    content,
				TokenCount: tokenCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}
