package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review attaches a 1-5 rating and optional text to exactly one of: a
// slot+product pair, a product page, or a specific replacement fact. One
// review per (user, attachment); a later submission updates in place.
// Uniqueness is enforced by partial unique indexes per attachment shape
// (see db.AutoMigrate) because the attachment columns are nullable.
type Review struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ProductID *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product   *Product       `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	PartID    *uuid.UUID     `gorm:"type:uuid;index" json:"part_id,omitempty"`
	HistoryID *uuid.UUID     `gorm:"type:uuid;column:history_id;index" json:"history_id,omitempty"`
	Rating    int            `gorm:"not null" json:"rating"`
	Body      string         `gorm:"column:body" json:"body,omitempty"`
	PhotoURL  string         `gorm:"column:photo_url" json:"photo_url,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Review) TableName() string { return "review" }

// Verified reports whether the review is tied to an actual replacement
// event rather than a free-standing opinion.
func (r *Review) Verified() bool { return r != nil && r.HistoryID != nil }
