package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertStatusOpen         = "open"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusDismissed    = "dismissed"
)

const (
	AlertKindWearNearLimit     = "wear_near_limit"
	AlertKindWearWornOut       = "wear_worn_out"
	AlertKindLubeOverdue       = "lube_overdue"
	AlertKindSealantOverdue    = "sealant_overdue"
	AlertKindBrakeFluidOverdue = "brake_fluid_overdue"
)

// Alert is a "needs attention" notification derived from wear state. At
// most one open alert exists per (user, kind, part) tuple; the partial
// unique index behind that is created in db.AutoMigrateAll. PartID is
// uuid.Nil for bike-level alerts so the tuple stays index-friendly.
type Alert struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Kind      string    `gorm:"not null" json:"kind"`
	PartID    uuid.UUID `gorm:"type:uuid;not null" json:"part_id"`
	Status    string    `gorm:"not null;default:'open';index" json:"status"`
	Message   string    `gorm:"column:message" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Alert) TableName() string { return "alert" }
