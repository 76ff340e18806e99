package specification

import (
	"time"

	"gorm.io/gorm"
)

type SessionStatusIs struct {
	Status string
}

func (s SessionStatusIs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type SessionsForProducts struct {
	ProductIDs []int64
}

func (s SessionsForProducts) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_id IN ?", s.ProductIDs)
}

type StartedSince struct {
	Since time.Time
}

func (s StartedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("started_at >= ?", s.Since)
}

// LastActivityBefore is strict: a session idle for exactly the timeout is kept.
type LastActivityBefore struct {
	Cutoff time.Time
}

func (s LastActivityBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_activity_at < ?", s.Cutoff)
}
