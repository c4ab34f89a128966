package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one row of the Postgres document backend.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64" json:"collection"`
	ID         string         `gorm:"primaryKey;size:128" json:"id"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
