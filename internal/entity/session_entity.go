package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

// Session records one user's engagement with one suggested product.
// EndedAt is set exactly when Status is ended.
type Session struct {
	Id             uuid.UUID
	ProductId      int64
	UserIdentifier string
	Status         SessionStatus
	StartedAt      time.Time
	LastActivityAt time.Time
	EndedAt        *time.Time
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

type ProductSessionCount struct {
	ProductId int64
	Count     int64
}
