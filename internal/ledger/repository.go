// Package ledger is the persistent store of expense records: append-only
// creation, mutable status/category/archive fields, no physical deletes.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository handles expense ledger database operations
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const recordColumns = `id, date, amount, merchant, category, status, receipt_url,
	raw_extraction, sender_name, chat_id, submitted_at, approved_at,
	reimbursed_at, archived, archived_at, created_at`

// Create inserts a new expense record
func (r *Repository) Create(ctx context.Context, record *models.ExpenseRecord) error {
	query := `
		INSERT INTO expenses (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var amount *string
	if record.Amount != nil {
		s := record.Amount.String()
		amount = &s
	}

	var raw *string
	if len(record.RawExtraction) > 0 {
		s := string(record.RawExtraction)
		raw = &s
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Date,
		amount,
		record.Merchant,
		record.Category,
		string(record.Status),
		record.ReceiptURL,
		raw,
		record.SenderName,
		record.ChatID,
		record.SubmittedAt,
		record.ApprovedAt,
		record.ReimbursedAt,
		record.Archived,
		record.ArchivedAt,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense record", zap.String("id", record.ID), zap.Error(err))
		return fmt.Errorf("failed to create expense record: %w", err)
	}

	return nil
}

// GetByID retrieves a single expense record, or nil if absent
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ExpenseRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM expenses WHERE id = ?`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense record: %w", err)
	}

	return record, nil
}

// List retrieves expense records matching the filter, newest
// submissions first
func (r *Repository) List(ctx context.Context, filter models.Filter) ([]*models.ExpenseRecord, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "archived = ?")
	args = append(args, filter.Archived)

	if filter.StartDate != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.EndDate)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.SenderName != "" {
		conditions = append(conditions, "sender_name = ?")
		args = append(args, filter.SenderName)
	}
	if len(filter.Categories) > 0 {
		conditions = append(conditions, "category IN ("+placeholders(len(filter.Categories))+")")
		for _, c := range filter.Categories {
			args = append(args, c)
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + recordColumns + ` FROM expenses WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY submitted_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.queryRecords(ctx, query, args...)
}

// ListOutstanding retrieves the non-archived, not-yet-reimbursed
// entries for a chat, newest submissions first
func (r *Repository) ListOutstanding(ctx context.Context, chatID int64) ([]*models.ExpenseRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM expenses
		WHERE chat_id = ? AND archived = 0 AND status IN (?, ?, ?)
		ORDER BY submitted_at DESC`

	return r.queryRecords(ctx, query, chatID,
		string(models.StatusPending),
		string(models.StatusNeedsReview),
		string(models.StatusApproved))
}

// UpdateStatus sets the status on every matched id and returns the
// post-mutation rows. Entry into approved or reimbursed stamps the
// corresponding timestamp, rewritten on every application.
func (r *Repository) UpdateStatus(ctx context.Context, ids []string, status models.Status, now time.Time) ([]*models.ExpenseRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	set := "status = ?"
	args := []interface{}{string(status)}
	switch status {
	case models.StatusApproved:
		set += ", approved_at = ?"
		args = append(args, now)
	case models.StatusReimbursed:
		set += ", reimbursed_at = ?"
		args = append(args, now)
	}

	query := "UPDATE expenses SET " + set + " WHERE id IN (" + placeholders(len(ids)) + ")"
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update status",
			zap.String("status", string(status)),
			zap.Int("ids", len(ids)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return r.getByIDs(ctx, ids)
}

// SetArchived toggles archival on every matched id and returns the
// post-mutation rows. archived and archived_at move together.
func (r *Repository) SetArchived(ctx context.Context, ids []string, archived bool, now time.Time) ([]*models.ExpenseRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var archivedAt interface{}
	if archived {
		archivedAt = now
	}

	query := "UPDATE expenses SET archived = ?, archived_at = ? WHERE id IN (" + placeholders(len(ids)) + ")"
	args := []interface{}{archived, archivedAt}
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to set archived",
			zap.Bool("archived", archived),
			zap.Int("ids", len(ids)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to set archived: %w", err)
	}

	return r.getByIDs(ctx, ids)
}

// UpdateCategory reassigns the category on every matched id and returns
// the post-mutation rows
func (r *Repository) UpdateCategory(ctx context.Context, ids []string, category string) ([]*models.ExpenseRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := "UPDATE expenses SET category = ? WHERE id IN (" + placeholders(len(ids)) + ")"
	args := []interface{}{category}
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to update category",
			zap.String("category", category),
			zap.Int("ids", len(ids)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return r.getByIDs(ctx, ids)
}

// getByIDs returns the rows whose ids exist in the store; unknown ids
// are simply absent from the result
func (r *Repository) getByIDs(ctx context.Context, ids []string) ([]*models.ExpenseRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM expenses WHERE id IN (` +
		placeholders(len(ids)) + `) ORDER BY submitted_at DESC`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	return r.queryRecords(ctx, query, args...)
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*models.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var records []*models.ExpenseRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*models.ExpenseRecord, error) {
	var record models.ExpenseRecord
	var (
		date, amount, merchant, category, receiptURL, raw, senderName sql.NullString
		chatID                                                        sql.NullInt64
		approvedAt, reimbursedAt, archivedAt                          sql.NullTime
		status                                                        string
	)

	err := s.Scan(
		&record.ID,
		&date,
		&amount,
		&merchant,
		&category,
		&status,
		&receiptURL,
		&raw,
		&senderName,
		&chatID,
		&record.SubmittedAt,
		&approvedAt,
		&reimbursedAt,
		&record.Archived,
		&archivedAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.Status(status)
	if date.Valid {
		record.Date = &date.String
	}
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount.String, err)
		}
		record.Amount = &d
	}
	if merchant.Valid {
		record.Merchant = &merchant.String
	}
	if category.Valid {
		record.Category = &category.String
	}
	if receiptURL.Valid {
		record.ReceiptURL = &receiptURL.String
	}
	if raw.Valid {
		record.RawExtraction = []byte(raw.String)
	}
	if senderName.Valid {
		record.SenderName = &senderName.String
	}
	if chatID.Valid {
		record.ChatID = &chatID.Int64
	}
	if approvedAt.Valid {
		record.ApprovedAt = &approvedAt.Time
	}
	if reimbursedAt.Valid {
		record.ReimbursedAt = &reimbursedAt.Time
	}
	if archivedAt.Valid {
		record.ArchivedAt = &archivedAt.Time
	}

	return &record, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
