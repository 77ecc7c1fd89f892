package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Bike struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Name          string         `gorm:"not null" json:"name"`
	TotalDistance float64        `gorm:"column:total_distance;not null;default:0" json:"total_distance"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Bike) TableName() string { return "bike" }
