package models

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity, audit timestamps and soft-delete triple shared by
// every persisted entity. Ledger queries must filter IsDeleted = false.
type Base struct {
	ID        string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	IsDeleted bool       `gorm:"not null;default:false;index" bson:"is_deleted" json:"-"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`
	DeletedBy string     `gorm:"size:64" bson:"deleted_by,omitempty" json:"-"`
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Stamp assigns an id when missing and refreshes the audit timestamps.
func (b *Base) Stamp(now time.Time) {
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// MarkDeleted flags the entity as soft-deleted.
func (b *Base) MarkDeleted(now time.Time, by string) {
	b.IsDeleted = true
	b.DeletedAt = &now
	b.DeletedBy = by
	b.UpdatedAt = now
}
