package model

import (
	"time"

	"github.com/google/uuid"
)

// Session has no foreign key to products: deleting a product leaves its
// history in place for popularity counts.
type Session struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductId      int64      `gorm:"not null;index"`
	UserIdentifier string     `gorm:"type:varchar(255);not null;index"`
	Status         string     `gorm:"type:varchar(16);not null;index:idx_sessions_status_activity,priority:1"`
	StartedAt      time.Time  `gorm:"not null;index"`
	LastActivityAt time.Time  `gorm:"not null;index:idx_sessions_status_activity,priority:2"`
	EndedAt        *time.Time
}

func (Session) TableName() string {
	return "sessions"
}
