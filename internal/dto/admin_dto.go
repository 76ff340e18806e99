package dto

import (
	"time"
)

type ActiveSessionCount struct {
	ProductId   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Count       int64  `json:"count"`
}

type ActiveSessionsResponse struct {
	Total    int64                 `json:"total"`
	Products []*ActiveSessionCount `json:"products"`
}

type PopularProductsRequest struct {
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

type PopularProductResponse struct {
	Product      *ProductResponse `json:"product"`
	SessionCount int64            `json:"session_count"`
}

type ActiveUsersResponse struct {
	ActiveUsers    int64 `json:"active_users"`
	ActiveSessions int64 `json:"active_sessions"`
}

type ReapResponse struct {
	Cutoff       time.Time `json:"cutoff"`
	Scanned      int       `json:"scanned"`
	Ended        int       `json:"ended"`
	AlreadyEnded int       `json:"already_ended"`
	Failed       int       `json:"failed"`
	DurationMs   int64     `json:"duration_ms"`
}

// MetricsSnapshot is pushed to admin websocket clients whenever a session
// starts or ends.
type MetricsSnapshot struct {
	ActiveSessions  int64           `json:"active_sessions"`
	ActiveUsers     int64           `json:"active_users"`
	ActiveByProduct map[int64]int64 `json:"active_by_product"`
	Trigger         string          `json:"trigger"`
	At              time.Time       `json:"at"`
}

type LogListRequest struct {
	Level  string `query:"level" validate:"omitempty,oneof=debug info warn error"`
	Limit  int    `query:"limit" validate:"gte=0,lte=500"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type LogListResponse struct {
	Id        string    `json:"id"`
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}
