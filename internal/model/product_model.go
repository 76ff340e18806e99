package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type Product struct {
	Id          int64            `gorm:"primaryKey;autoIncrement"`
	Name        string           `gorm:"type:varchar(255);not null"`
	Description string           `gorm:"type:text"`
	Category    string           `gorm:"type:varchar(100);not null;index"`
	Price       float64          `gorm:"type:numeric(12,2);not null;default:0"`
	Rating      float64          `gorm:"type:double precision;not null;default:0"`
	ReviewCount int              `gorm:"not null;default:0"`
	Image       string           `gorm:"type:text"`
	Embedding   *pgvector.Vector `gorm:"type:vector"` // NULL until the embedding job succeeds
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
