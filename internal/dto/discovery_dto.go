package dto

import (
	"github.com/google/uuid"
)

type SearchRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

type SearchHit struct {
	Product    *ProductResponse `json:"product"`
	Similarity float64          `json:"similarity"`
}

type SearchResponse struct {
	Context     []*SearchHit `json:"context"`
	Suggestions []*SearchHit `json:"suggestions"`
	Degraded    bool         `json:"degraded"`
}

type ChatMessage struct {
	Text   string `json:"text" validate:"required"`
	Sender string `json:"sender" validate:"required,oneof=user assistant"`
}

type ChatRequest struct {
	UserIdentifier string        `json:"user_identifier" validate:"required,max=255"`
	Message        string        `json:"message" validate:"required,max=2000"`
	History        []ChatMessage `json:"history,omitempty" validate:"max=20,dive"`
}

type ChatSuggestion struct {
	Product    *ProductResponse `json:"product"`
	Similarity float64          `json:"similarity"`
	// SessionId is nil when the session could not be recorded.
	SessionId *uuid.UUID `json:"session_id"`
}

type ChatResponse struct {
	Answer      string            `json:"answer"`
	Suggestions []*ChatSuggestion `json:"suggestions"`
	Degraded    bool              `json:"degraded"`
	Generated   bool              `json:"generated"`
}
