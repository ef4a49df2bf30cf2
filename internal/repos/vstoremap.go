package repos

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/dossier-backend/internal/logger"
	pkgerrors "github.com/yungbote/dossier-backend/internal/pkg/errors"
	"github.com/yungbote/dossier-backend/internal/types"
)

type VStoreMapRepo interface {
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, rec *types.VectorStoreRecord) (*types.VectorStoreRecord, error)
	GetByName(ctx context.Context, tx *gorm.DB, project, vectorStoreName string) (*types.VectorStoreRecord, error)
	ListByProject(ctx context.Context, tx *gorm.DB, project string) ([]*types.VectorStoreRecord, error)
}

type vstoreMapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVStoreMapRepo(db *gorm.DB, baseLog *logger.Logger) VStoreMapRepo {
	repoLog := baseLog.With("repo", "VStoreMapRepo")
	return &vstoreMapRepo{db: db, log: repoLog}
}

func (r *vstoreMapRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, rec *types.VectorStoreRecord) (*types.VectorStoreRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if rec == nil || rec.Project == "" || rec.VectorStoreName == "" {
		return nil, fmt.Errorf("vector store record requires project and name: %w", pkgerrors.ErrInvalidArgument)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project"}, {Name: "vector_store_name"}},
			DoNothing: true,
		}).
		Create(rec).Error; err != nil {
		return nil, err
	}
	return r.GetByName(ctx, transaction, rec.Project, rec.VectorStoreName)
}

func (r *vstoreMapRepo) GetByName(ctx context.Context, tx *gorm.DB, project, vectorStoreName string) (*types.VectorStoreRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rec types.VectorStoreRecord
	err := transaction.WithContext(ctx).
		Where("project = ? AND vector_store_name = ?", project, vectorStoreName).
		First(&rec).Error
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vstore_map row %s/%s: %w", project, vectorStoreName, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *vstoreMapRepo) ListByProject(ctx context.Context, tx *gorm.DB, project string) ([]*types.VectorStoreRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VectorStoreRecord
	if err := transaction.WithContext(ctx).
		Where("project = ?", project).
		Order("vector_store_name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
