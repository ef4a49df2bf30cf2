package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VectorStoreRecord maps a vector store name (stable id + subfolder type) back
// to the document's canonical name. Created once per (document, subfolder).
type VectorStoreRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Project         string         `gorm:"column:project;not null;uniqueIndex:idx_vstore_map_project_name,priority:1" json:"project"`
	VectorStoreName string         `gorm:"column:vector_store_name;not null;uniqueIndex:idx_vstore_map_project_name,priority:2" json:"vector_store_name"`
	CanonicalName   string         `gorm:"column:canonical_name;not null" json:"canonical_name"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (VectorStoreRecord) TableName() string { return "vstore_map" }
