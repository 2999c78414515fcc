package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the review state of an expense record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusNeedsReview Status = "needs_review"
	StatusApproved    Status = "approved"
	StatusReimbursed  Status = "reimbursed"
)

// Statuses lists every valid status value.
var Statuses = []Status{StatusPending, StatusNeedsReview, StatusApproved, StatusReimbursed}

// IsValid reports whether s is a member of the fixed status set.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusNeedsReview, StatusApproved, StatusReimbursed:
		return true
	}
	return false
}

// ReviewThreshold is the confidence cutoff for automatic acceptance.
// Extractions at or above it start as pending; anything below needs a human.
const ReviewThreshold = 0.8

// StatusForConfidence assigns the initial review status for a freshly
// extracted document. This is the only path that produces the two
// initial states.
func StatusForConfidence(confidence float64) Status {
	if confidence >= ReviewThreshold {
		return StatusPending
	}
	return StatusNeedsReview
}

// ExpenseRecord is the ledger's unit of record. Created once by the
// ingestion pipeline, mutated only through the lifecycle engine, never
// deleted (archival stands in for deletion).
type ExpenseRecord struct {
	ID            string           `json:"id"`
	Date          *string          `json:"date"`
	Amount        *decimal.Decimal `json:"amount"`
	Merchant      *string          `json:"merchant"`
	Category      *string          `json:"category"`
	Status        Status           `json:"status"`
	ReceiptURL    *string          `json:"receipt_url"`
	RawExtraction json.RawMessage  `json:"raw_extraction,omitempty"`
	SenderName    *string          `json:"sender_name"`
	ChatID        *int64           `json:"chat_id"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	ApprovedAt    *time.Time       `json:"approved_at"`
	ReimbursedAt  *time.Time       `json:"reimbursed_at"`
	Archived      bool             `json:"archived"`
	ArchivedAt    *time.Time       `json:"archived_at"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Filter selects ledger rows for listing and export.
type Filter struct {
	StartDate  string   // inclusive, YYYY-MM-DD, applied to the transaction date
	EndDate    string   // inclusive
	Status     string
	SenderName string
	Categories []string
	Archived   bool
	Limit      int // capped at MaxPageSize
	Offset     int
}

// MaxPageSize caps listing page sizes.
const MaxPageSize = 100
