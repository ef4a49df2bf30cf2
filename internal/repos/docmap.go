package repos

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

// DocMapRepo is the partitioned name<->id table behind the identity registry.
// Partition key is the project, row key is the stable id.
type DocMapRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, rec *types.DocumentRecord) (*types.DocumentRecord, error)
	GetByStableID(ctx context.Context, tx *gorm.DB, project, stableID string) (*types.DocumentRecord, error)
	GetByCanonicalName(ctx context.Context, tx *gorm.DB, project, canonicalName string) (*types.DocumentRecord, error)
	ListByProject(ctx context.Context, tx *gorm.DB, project string) ([]*types.DocumentRecord, error)
}

type docMapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocMapRepo(db *gorm.DB, baseLog *logger.Logger) DocMapRepo {
	repoLog := baseLog.With("repo", "DocMapRepo")
	return &docMapRepo{db: db, log: repoLog}
}

// Insert is a no-op when a row with the same (project, stable_id) already
// exists. The stored row is returned either way.
func (r *docMapRepo) Insert(ctx context.Context, tx *gorm.DB, rec *types.DocumentRecord) (*types.DocumentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if rec == nil || rec.Project == "" || rec.StableID == "" {
		return nil, fmt.Errorf("document record requires project and stable id: %w", pkgerrors.ErrInvalidArgument)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project"}, {Name: "stable_id"}},
			DoNothing: true,
		}).
		Create(rec).Error; err != nil {
		return nil, err
	}

	// Re-read so concurrent idempotent writers all observe the winning row.
	return r.GetByStableID(ctx, transaction, rec.Project, rec.StableID)
}

func (r *docMapRepo) GetByStableID(ctx context.Context, tx *gorm.DB, project, stableID string) (*types.DocumentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.DocumentRecord
	err := transaction.WithContext(ctx).
		Where("project = ? AND stable_id = ?", project, stableID).
		First(&rec).Error
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("doc_map row %s/%s: %w", project, stableID, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *docMapRepo) GetByCanonicalName(ctx context.Context, tx *gorm.DB, project, canonicalName string) (*types.DocumentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.DocumentRecord
	err := transaction.WithContext(ctx).
		Where("project = ? AND canonical_name = ?", project, canonicalName).
		First(&rec).Error
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("doc_map name %s/%s: %w", project, canonicalName, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *docMapRepo) ListByProject(ctx context.Context, tx *gorm.DB, project string) ([]*types.DocumentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DocumentRecord
	if err := transaction.WithContext(ctx).
		Where("project = ?", project).
		Order("stable_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
