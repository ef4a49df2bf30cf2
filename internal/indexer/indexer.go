package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/dossier-backend/internal/clients/openai"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/registry"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/sections"
	"github.com/yungbote/dossier-backend/internal/types"
)

// Stats counts per-file outcomes of one indexing run.
type Stats struct {
	Successful int
	Failed     int
	Skipped    int
}

// Indexer pushes persisted section files into per-document vector stores.
// One store per {stable_id}-{subfolder_type}; the mapping is recorded once
// in vstore_map. Failures are per-file, never batch-fatal.
type Indexer struct {
	log      *logger.Logger
	store    sections.Store
	ai       openai.Client
	registry registry.Service
	vsRepo   repos.VStoreMapRepo
}

func New(baseLog *logger.Logger, store sections.Store, ai openai.Client, reg registry.Service, vsRepo repos.VStoreMapRepo) *Indexer {
	return &Indexer{
		log:      baseLog.With("service", "Indexer"),
		store:    store,
		ai:       ai,
		registry: reg,
		vsRepo:   vsRepo,
	}
}

// IndexProject walks the project's section keys, groups them by vector store
// name, records the store mapping, then creates each remote store and
// uploads its files.
func (ix *Indexer) IndexProject(ctx context.Context, project string) (Stats, error) {
	log := ix.log.With("project", project)
	var stats Stats

	keys, err := ix.store.List(ctx, project+"-")
	if err != nil {
		return stats, fmt.Errorf("list sections for project %q: %w", project, err)
	}

	storeFiles := map[string][]string{}
	var storeOrder []string

	for _, key := range keys {
		if !strings.HasSuffix(key, ".txt") {
			stats.Skipped++
			continue
		}
		vsName, ok := vectorStoreNameForKey(project, key)
		if !ok {
			log.Warn("Invalid section naming convention, skipping", "key", key)
			stats.Skipped++
			continue
		}
		if _, exists := storeFiles[vsName]; !exists {
			storeOrder = append(storeOrder, vsName)
		}
		storeFiles[vsName] = append(storeFiles[vsName], key)
	}

	for _, vsName := range storeOrder {
		if err := ix.recordMapping(ctx, project, vsName); err != nil {
			log.Error("Failed to record vector store mapping", "vector_store", vsName, "error", err)
		}

		vsID, err := ix.ai.CreateVectorStore(ctx, vsName)
		if err != nil {
			log.Error("Failed to create vector store", "vector_store", vsName, "error", err)
			stats.Failed += len(storeFiles[vsName])
			continue
		}
		log.Info("Vector store created", "vector_store", vsName, "vector_store_id", vsID)

		for _, key := range storeFiles[vsName] {
			content, err := ix.store.Get(ctx, key)
			if err != nil {
				log.Error("Failed to read section for upload", "key", key, "error", err)
				stats.Failed++
				continue
			}
			if _, err := ix.ai.UploadFileToVectorStore(ctx, vsID, key, []byte(content)); err != nil {
				log.Error("Failed to upload section to vector store", "key", key, "vector_store", vsName, "error", err)
				stats.Failed++
				continue
			}
			stats.Successful++
		}
	}

	log.Info("Indexing complete",
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// vectorStoreNameForKey derives {stable_id}-{subfolder_type} from a section
// key of the form {project}-{stable_id}-{subfolder}-chunk{i}-section{j}.txt.
func vectorStoreNameForKey(project, key string) (string, bool) {
	name := strings.TrimSuffix(key, ".txt")
	rest := strings.TrimPrefix(name, project+"-")
	if rest == name {
		return "", false
	}
	parts := strings.SplitN(rest, "-", 3)
	if len(parts) < 3 {
		return "", false
	}
	return parts[0] + "-" + parts[1], true
}

func (ix *Indexer) recordMapping(ctx context.Context, project, vsName string) error {
	stableID, _, found := strings.Cut(vsName, "-")
	if !found {
		return fmt.Errorf("vector store name %q missing subfolder suffix", vsName)
	}

	canonicalName, err := ix.registry.GetByID(ctx, project, stableID)
	if err != nil {
		return fmt.Errorf("resolve canonical name for %s/%s: %w", project, stableID, err)
	}

	_, err = ix.vsRepo.CreateIfAbsent(ctx, nil, &types.VectorStoreRecord{
		Project:         project,
		VectorStoreName: vsName,
		CanonicalName:   canonicalName,
	})
	return err
}
