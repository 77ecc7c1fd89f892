package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoredPart is a component sitting in the garage, detached from any slot.
// It keeps the wear and catalog link it had on the bike, and accrues nothing
// while detached. RemovedFromBikeID is display-only provenance.
type StoredPart struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User              *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Category          string         `gorm:"not null" json:"category"`
	Brand             string         `gorm:"column:brand" json:"brand"`
	Model             string         `gorm:"column:model" json:"model"`
	ProductID         *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product           *Product       `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	WearAccumulated   float64        `gorm:"column:wear_accumulated;not null;default:0" json:"wear_accumulated"`
	ExpectedLifespan  float64        `gorm:"column:expected_lifespan;not null;default:0" json:"expected_lifespan"`
	Attributes        datatypes.JSON `gorm:"type:jsonb;column:attributes" json:"attributes,omitempty"`
	RemovedFromBikeID *uuid.UUID     `gorm:"type:uuid;column:removed_from_bike_id" json:"removed_from_bike_id,omitempty"`
	RemovedAt         time.Time      `gorm:"column:removed_at;not null" json:"removed_at"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StoredPart) TableName() string { return "stored_part" }
