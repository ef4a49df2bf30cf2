package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/dossier-backend/internal/chunking"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/refiner"
	"github.com/yungbote/dossier-backend/internal/registry"
)

// Document is one unit of pipeline work: pre-extracted structural elements
// plus the identity under which its sections will be keyed.
type Document struct {
	Project       string
	Name          string
	SubfolderType string
	Elements      []chunking.Element
}

// Stats aggregates per-document outcomes of one pipeline run.
type Stats struct {
	Registered int
	Processed  int
	Failed     int
	Sections   int
}

// Pipeline runs the document workflow: register identities, then per
// document pick a chunking configuration, group elements into ordered
// chunks, and refine them into persisted sections. Documents fan out over a
// bounded worker pool; chunks within a document stay strictly ordered. One
// document's failure never stops the rest of the batch.
type Pipeline struct {
	log             *logger.Logger
	registry        registry.Service
	analyser        *chunking.Analyser
	grouper         chunking.Grouper
	engine          *refiner.Engine
	maxCharsOptions []int
	workers         int
}

func New(baseLog *logger.Logger, reg registry.Service, analyser *chunking.Analyser, grouper chunking.Grouper, engine *refiner.Engine, maxCharsOptions []int, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if len(maxCharsOptions) == 0 {
		maxCharsOptions = DefaultMaxCharsOptions()
	}
	return &Pipeline{
		log:             baseLog.With("service", "Pipeline"),
		registry:        reg,
		analyser:        analyser,
		grouper:         grouper,
		engine:          engine,
		maxCharsOptions: maxCharsOptions,
		workers:         workers,
	}
}

func DefaultMaxCharsOptions() []int {
	return []int{2400, 3200, 4000, 4800, 5600, 6400, 7200}
}

// Register puts every document into the identity registry. Registration is
// idempotent; a collision or storage error is logged and counted but does
// not stop the batch.
func (p *Pipeline) Register(ctx context.Context, docs []Document) Stats {
	var stats Stats
	for _, doc := range docs {
		stableID, err := p.registry.Put(ctx, doc.Project, doc.Name)
		if err != nil {
			p.log.Error("Failed to register document", "project", doc.Project, "document", doc.Name, "error", err)
			stats.Failed++
			continue
		}
		p.log.Info("Document registered", "project", doc.Project, "document", doc.Name, "stable_id", stableID)
		stats.Registered++
	}
	return stats
}

// Process refines every document. Fan-out is bounded by the worker count;
// with one worker the run is strictly sequential in input order.
func (p *Pipeline) Process(ctx context.Context, docs []Document) Stats {
	var (
		mu    sync.Mutex
		stats Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			sectionCount, err := p.processDocument(gctx, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Error("Document processing failed", "project", doc.Project, "document", doc.Name, "error", err)
				stats.Failed++
				return nil
			}
			stats.Processed++
			stats.Sections += sectionCount
			return nil
		})
	}
	// Workers swallow per-document errors, so this only surfaces ctx errors.
	_ = g.Wait()
	return stats
}

func (p *Pipeline) processDocument(ctx context.Context, doc Document) (int, error) {
	log := p.log.With("project", doc.Project, "document", doc.Name)
	log.Info("Processing document")

	settings, err := p.analyser.Analyse(doc.Elements, p.maxCharsOptions)
	if err != nil {
		return 0, fmt.Errorf("analyse chunk configurations: %w", err)
	}

	chunks := p.grouper.Group(doc.Elements, settings)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("winning configuration produced no chunks")
	}
	log.Info("Chunks prepared", "num_chunks", len(chunks), "max_characters", settings.MaxCharacters)

	result, err := p.engine.RefineDocument(ctx, doc.Project, doc.Name, doc.SubfolderType, chunks)
	if err != nil {
		return 0, err
	}
	return len(result.Sections), nil
}

// ClassifySubfolder maps a source folder name onto a subfolder type:
// clinical literature, instructions for use, or everything else.
func ClassifySubfolder(folder string) string {
	name := strings.ReplaceAll(strings.ToLower(folder), " ", "_")
	switch {
	case strings.Contains(name, "literature"):
		return "lr"
	case strings.Contains(name, "manual"),
		strings.Contains(name, "instructions_for_use"),
		strings.Contains(name, "ifu"):
		return "ifu"
	default:
		return "others"
	}
}
