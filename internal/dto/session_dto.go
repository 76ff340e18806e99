package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id             uuid.UUID  `json:"id"`
	ProductId      int64      `json:"product_id"`
	UserIdentifier string     `json:"user_identifier"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	EndedAt        *time.Time `json:"ended_at"`
}

type CloseSessionResponse struct {
	Session *SessionResponse `json:"session,omitempty"`
	// Transitioned is true only for the call that actually ended the session.
	Transitioned bool `json:"transitioned"`
	// Recorded is false when the store was unavailable and the close was dropped.
	Recorded bool `json:"recorded"`
}
