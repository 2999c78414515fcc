// Package lifecycle applies bulk mutations to ledger entries: status
// transitions, archive toggles, and category reassignment. Exactly one
// mutation class executes per request.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/jraftery/expense-ledger/internal/models"
	"go.uber.org/zap"
)

// Ledger is the slice of the expense store the engine mutates.
type Ledger interface {
	UpdateStatus(ctx context.Context, ids []string, status models.Status, now time.Time) ([]*models.ExpenseRecord, error)
	SetArchived(ctx context.Context, ids []string, archived bool, now time.Time) ([]*models.ExpenseRecord, error)
	UpdateCategory(ctx context.Context, ids []string, category string) ([]*models.ExpenseRecord, error)
}

// Notifier fans status-transition messages out to the submitting
// channels. Delivery is fire-and-forget; the mutation has already
// committed by the time it runs.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, status models.Status, records []*models.ExpenseRecord)
}

// ValidationError is a client-actionable request defect. No ledger
// change happens when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MutationClass identifies which of the three mutation kinds a request
// resolved to.
type MutationClass string

const (
	ClassArchive  MutationClass = "archive"
	ClassCategory MutationClass = "category"
	ClassStatus   MutationClass = "status"
)

// MutationRequest is one bulk mutation over a set of record ids.
// Archive action, category, and status are mutually exclusive; when
// more than one is present, archive wins over category wins over status.
type MutationRequest struct {
	IDs      []string `json:"ids"`
	Status   string   `json:"status,omitempty"`
	Action   string   `json:"action,omitempty"` // "archive" or "unarchive"
	Category string   `json:"category,omitempty"`
}

// MutationResult carries the post-mutation rows for every id that was
// actually matched. Ids absent from the store are silently missing.
type MutationResult struct {
	Class   MutationClass
	Status  models.Status // set for ClassStatus
	Records []*models.ExpenseRecord
}

// Engine is the lifecycle state machine over ledger entries.
type Engine struct {
	ledger   Ledger
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates a new lifecycle engine
func NewEngine(ledger Ledger, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

// Classify determines which mutation class a request represents,
// validating enumerated values. The whole request is rejected on any
// invalid value; nothing is partially applied.
func Classify(req *MutationRequest) (MutationClass, error) {
	if len(req.IDs) == 0 {
		return "", &ValidationError{Message: "ids must not be empty"}
	}

	if req.Action != "" {
		if req.Action != "archive" && req.Action != "unarchive" {
			return "", &ValidationError{Message: fmt.Sprintf("invalid action %q", req.Action)}
		}
		return ClassArchive, nil
	}

	if req.Category != "" {
		if !models.IsValidCategory(req.Category) {
			return "", &ValidationError{Message: fmt.Sprintf("invalid category %q", req.Category)}
		}
		return ClassCategory, nil
	}

	if req.Status != "" {
		if !models.Status(req.Status).IsValid() {
			return "", &ValidationError{Message: fmt.Sprintf("invalid status %q", req.Status)}
		}
		return ClassStatus, nil
	}

	return "", &ValidationError{Message: "request must set status, action, or category"}
}

// Apply executes exactly one mutation class against the targeted rows
// and returns the post-mutation values for every matched row. Status
// transitions into approved or reimbursed trigger notification fan-out
// after the mutation commits.
func (e *Engine) Apply(ctx context.Context, req *MutationRequest) (*MutationResult, error) {
	class, err := Classify(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &MutationResult{Class: class}

	switch class {
	case ClassArchive:
		records, err := e.ledger.SetArchived(ctx, req.IDs, req.Action == "archive", now)
		if err != nil {
			return nil, fmt.Errorf("archive mutation: %w", err)
		}
		result.Records = records

	case ClassCategory:
		records, err := e.ledger.UpdateCategory(ctx, req.IDs, req.Category)
		if err != nil {
			return nil, fmt.Errorf("category mutation: %w", err)
		}
		result.Records = records

	case ClassStatus:
		status := models.Status(req.Status)
		records, err := e.ledger.UpdateStatus(ctx, req.IDs, status, now)
		if err != nil {
			return nil, fmt.Errorf("status mutation: %w", err)
		}
		result.Status = status
		result.Records = records

		// Transitions are unordered on purpose: any status can be set
		// from any other, and re-entry rewrites the timestamp. Side
		// effects attach to approved and reimbursed only.
		if status == models.StatusApproved || status == models.StatusReimbursed {
			e.notifier.NotifyStatusChange(ctx, status, records)
		}
	}

	e.logger.Info("Lifecycle mutation applied",
		zap.String("class", string(class)),
		zap.Int("requested", len(req.IDs)),
		zap.Int("matched", len(result.Records)))

	return result, nil
}
