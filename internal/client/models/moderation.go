package models

import "time"

// ModerationStatus is the approval state of a document or chat message.
// The moderation workflow lives entirely on the server; the client only
// reads these values.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// PendingSummary is one row of the aggregated moderation feed: how many
// items await review for a business record and when the latest one arrived.
type PendingSummary struct {
	RecordID      int64     `json:"record_id"`
	PendingCount  int       `json:"pending_count"`
	LastPendingAt time.Time `json:"last_pending_at"`
}
