package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Part is a slot on a bike. A slot with a nil InstalledAt is empty; an
// installed slot carries either a catalog link or a free-text brand/model
// snapshot, and accrues wear while distance deltas arrive.
type Part struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BikeID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_bike_category,unique" json:"bike_id"`
	Bike             *Bike          `gorm:"constraint:OnDelete:CASCADE;foreignKey:BikeID;references:ID" json:"bike,omitempty"`
	Category         string         `gorm:"not null;index:idx_bike_category,unique" json:"category"`
	Brand            string         `gorm:"column:brand" json:"brand"`
	Model            string         `gorm:"column:model" json:"model"`
	ProductID        *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product          *Product       `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	WearAccumulated  float64        `gorm:"column:wear_accumulated;not null;default:0" json:"wear_accumulated"`
	ExpectedLifespan float64        `gorm:"column:expected_lifespan;not null;default:0" json:"expected_lifespan"`
	InstalledAt      *time.Time     `gorm:"column:installed_at" json:"installed_at,omitempty"`
	Attributes       datatypes.JSON `gorm:"type:jsonb;column:attributes" json:"attributes,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Part) TableName() string { return "part" }

func (p *Part) Installed() bool { return p != nil && p.InstalledAt != nil }
