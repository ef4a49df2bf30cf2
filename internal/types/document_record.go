package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DocumentRecord maps a document's canonical name to its stable id within a
// project partition. Rows are created on first encounter and never mutated.
type DocumentRecord struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Project       string         `gorm:"column:project;not null;uniqueIndex:idx_doc_map_project_stable_id,priority:1" json:"project"`
	StableID      string         `gorm:"column:stable_id;not null;uniqueIndex:idx_doc_map_project_stable_id,priority:2" json:"stable_id"`
	CanonicalName string         `gorm:"column:canonical_name;not null" json:"canonical_name"`
	Metadata      datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (DocumentRecord) TableName() string { return "doc_map" }
