package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PartHistory is a replacement fact. The identity columns (product, brand,
// model, expected lifespan, attributes) describe the incoming occupant, so
// the newest fact per part always mirrors what is currently installed. WearAtReplacement and
// BikeDistanceAt freeze the outgoing component's numbers at the moment of
// the swap; PrevProductID remembers which catalog record that wear belongs
// to so lifespan averages can be recomputed later.
//
// Facts are append-only. The newest fact for a part may have its identity
// columns edited in place or be undone; everything older is frozen.
type PartHistory struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BikeID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"bike_id"`
	Bike              *Bike          `gorm:"constraint:OnDelete:CASCADE;foreignKey:BikeID;references:ID" json:"bike,omitempty"`
	PartID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"part_id"`
	Part              *Part          `gorm:"constraint:OnDelete:CASCADE;foreignKey:PartID;references:ID" json:"part,omitempty"`
	Category          string         `gorm:"not null;index" json:"category"`
	ProductID         *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product           *Product       `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	PrevProductID     *uuid.UUID     `gorm:"type:uuid;column:prev_product_id;index" json:"prev_product_id,omitempty"`
	Brand             string         `gorm:"column:brand" json:"brand"`
	Model             string         `gorm:"column:model" json:"model"`
	ExpectedLifespan  float64        `gorm:"column:expected_lifespan;not null;default:0" json:"expected_lifespan"`
	WearAtReplacement float64        `gorm:"column:wear_at_replacement;not null;default:0" json:"wear_at_replacement"`
	BikeDistanceAt    float64        `gorm:"column:bike_distance_at;not null;default:0" json:"bike_distance_at"`
	Attributes        datatypes.JSON `gorm:"type:jsonb;column:attributes" json:"attributes,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (PartHistory) TableName() string { return "part_history" }
