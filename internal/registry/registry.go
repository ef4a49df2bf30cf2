package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yungbote/dossier-backend/internal/logger"
	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/types"
)

// StableIDWidth is the number of hex characters kept from the SHA-256 digest.
// 8 hex chars is ~32 bits; collisions are flagged, not resolved.
const StableIDWidth = 8

// Service is the identity registry: a deterministic name<->id mapping
// partitioned by project. Put is idempotent; lookups return
// pkgerrors.ErrNotFound on a miss.
type Service interface {
	Put(ctx context.Context, project, canonicalName string) (string, error)
	GetByID(ctx context.Context, project, stableID string) (string, error)
	GetByName(ctx context.Context, project, canonicalName string) (string, error)
}

type service struct {
	log  *logger.Logger
	repo repos.DocMapRepo
}

func NewService(baseLog *logger.Logger, repo repos.DocMapRepo) Service {
	return &service{
		log:  baseLog.With("service", "RegistryService"),
		repo: repo,
	}
}

// NormalizeName lowercases a document name and replaces spaces with
// underscores. The normalized form is what gets hashed and stored.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// HashName derives the fixed-width stable id from a normalized name.
func HashName(normalizedName string) string {
	sum := sha256.Sum256([]byte(normalizedName))
	return hex.EncodeToString(sum[:])[:StableIDWidth]
}

func (s *service) Put(ctx context.Context, project, canonicalName string) (string, error) {
	if project == "" || strings.TrimSpace(canonicalName) == "" {
		return "", fmt.Errorf("registry put requires project and name: %w", pkgerrors.ErrInvalidArgument)
	}

	normalized := NormalizeName(canonicalName)
	stableID := HashName(normalized)

	rec, err := s.repo.Insert(ctx, nil, &types.DocumentRecord{
		Project:       project,
		StableID:      stableID,
		CanonicalName: normalized,
	})
	if err != nil {
		return "", fmt.Errorf("registry put %s/%s: %w", project, normalized, err)
	}

	// The truncated hash space is small enough that two names can share an
	// id. Flag it rather than silently handing out the wrong identity.
	if rec.CanonicalName != normalized {
		s.log.Error("Stable id already registered for a different document",
			"project", project,
			"stable_id", stableID,
			"registered_name", rec.CanonicalName,
			"new_name", normalized,
		)
		return "", fmt.Errorf("stable id %s maps to %q, not %q: %w", stableID, rec.CanonicalName, normalized, pkgerrors.ErrHashCollision)
	}
	return stableID, nil
}

func (s *service) GetByID(ctx context.Context, project, stableID string) (string, error) {
	rec, err := s.repo.GetByStableID(ctx, nil, project, stableID)
	if err != nil {
		return "", err
	}
	return rec.CanonicalName, nil
}

func (s *service) GetByName(ctx context.Context, project, canonicalName string) (string, error) {
	rec, err := s.repo.GetByCanonicalName(ctx, nil, project, NormalizeName(canonicalName))
	if err != nil {
		return "", err
	}
	return rec.StableID, nil
}
