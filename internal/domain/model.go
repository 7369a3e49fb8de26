package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is the common base struct for all soft-deletable resources.
// It replaces gorm.Model to avoid the implicit query scope of gorm.DeletedAt:
// trashed rows must stay visible to the trash view and to lifecycle lookups.
type BaseModel struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index" json:"deletedAt"`
}

// BeforeCreate assigns a UUID when the caller did not provide an ID.
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// State reports the lifecycle state derived from DeletedAt.
func (m BaseModel) State() State {
	if m.DeletedAt == nil {
		return StateActive
	}
	return StateTrashed
}
