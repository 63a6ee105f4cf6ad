package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an enrolled person. Name is the external lookup key and is
// unique; the embedding is replaced in place on re-enrollment.
type Identity struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Embedding []float32 `json:"-" db:"embedding"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
