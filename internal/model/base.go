package model

import (
	"time"

	"gorm.io/gorm"
)

// Eliminable is implemented by every entity that supports soft delete.
// Default queries skip deleted rows; repositories can still resolve them by id.
type Eliminable interface {
	GetID() uint
	EstaEliminado() bool
}

// Base carries the identity, timestamps and soft-delete flag shared by
// catalog and aggregate entities. Append-only rows do not embed it.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b Base) GetID() uint { return b.ID }

func (b Base) EstaEliminado() bool { return b.DeletedAt.Valid }
