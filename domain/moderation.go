package domain

import (
	"time"

	"github.com/google/uuid"
)

// Block is stored directionally but always queried as an unordered pair.
type Block struct {
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

type ReportCategory string

const (
	CategorySpam       ReportCategory = "spam"
	CategoryHarassment ReportCategory = "harassment"
	CategoryHate       ReportCategory = "hate"
	CategoryNudity     ReportCategory = "nudity"
	CategoryViolence   ReportCategory = "violence"
	CategoryOther      ReportCategory = "other"
)

type Report struct {
	ID                uuid.UUID      `json:"id"`
	ReporterID        string         `json:"reporter_id"`
	ReportedMessageID *uuid.UUID     `json:"reported_message_id,omitempty"`
	ReportedUserID    *string        `json:"reported_user_id,omitempty"`
	Category          ReportCategory `json:"category"`
	FreeText          string         `json:"free_text"`
	Status            ReportStatus   `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	ResolvedBy        *string        `json:"resolved_by,omitempty"`
}
