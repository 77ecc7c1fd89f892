package types

import (
	"time"

	"github.com/google/uuid"
)

// Product is a canonical catalog record, unique per
// (category, brand_norm, model_norm). The aggregate columns are derived
// from review and history facts and are never hand-edited.
type Product struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Category           string    `gorm:"not null;index:idx_product_triple,unique" json:"category"`
	Brand              string    `gorm:"not null" json:"brand"`
	Model              string    `gorm:"not null" json:"model"`
	BrandNorm          string    `gorm:"column:brand_norm;not null;index:idx_product_triple,unique" json:"-"`
	ModelNorm          string    `gorm:"column:model_norm;not null;index:idx_product_triple,unique" json:"-"`
	TotalInstallations int       `gorm:"column:total_installations;not null;default:0" json:"total_installations"`
	AverageRating      float64   `gorm:"column:average_rating;not null;default:0" json:"average_rating"`
	TotalReviews       int       `gorm:"column:total_reviews;not null;default:0" json:"total_reviews"`
	AverageLifespan    float64   `gorm:"column:average_lifespan;not null;default:0" json:"average_lifespan"`
	ImageURL           string    `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "product" }
