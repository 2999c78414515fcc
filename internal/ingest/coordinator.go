package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/jraftery/expense-ledger/internal/storage"
	"go.uber.org/zap"
)

// Extractor pulls structured expense data out of one document.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*models.ExtractionResult, error)
}

// Ledger is the write slice of the expense store the coordinator needs.
type Ledger interface {
	Create(ctx context.Context, record *models.ExpenseRecord) error
}

// Outcome reports one successfully recorded document of a batch.
type Outcome struct {
	ExpenseID string        `json:"expense_id"`
	Status    models.Status `json:"status"`
}

// Coordinator runs documents through validation, storage and
// extraction, and triage into the ledger, with the per-channel
// failure policies.
type Coordinator struct {
	store         storage.ObjectStore
	extractor     Extractor
	ledger        Ledger
	maxConcurrent int
	logger        *zap.Logger
}

// NewCoordinator creates a new ingestion coordinator. maxConcurrent
// bounds cross-document fan-out within one batch.
func NewCoordinator(store storage.ObjectStore, extractor Extractor, ledger Ledger, maxConcurrent int, logger *zap.Logger) *Coordinator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Coordinator{
		store:         store,
		extractor:     extractor,
		ledger:        ledger,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// IngestBatch processes the documents of one batch submission.
// Documents are independent, so they run concurrently up to the
// fan-out bound. A document that fails validation, storage, or the
// ledger insert is logged and skipped; extraction failures downgrade
// to a zero-confidence record so nothing is silently lost. The batch
// never aborts as a whole, and an empty batch is a valid no-op.
func (c *Coordinator) IngestBatch(ctx context.Context, docs []Document) []Outcome {
	results := make([]*Outcome, len(docs))
	sem := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for i, doc := range docs {
		if !IsSupportedType(doc.MimeType) {
			c.logger.Info("Skipping unsupported file type",
				zap.String("mime_type", doc.MimeType),
				zap.String("filename", doc.Filename))
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, doc Document) {
			defer wg.Done()
			defer func() { <-sem }()

			record, err := c.ingestBatchDocument(ctx, doc)
			if err != nil {
				c.logger.Error("Skipping document after ingestion failure",
					zap.String("filename", doc.Filename),
					zap.String("sender", doc.SenderName),
					zap.Error(err))
				return
			}
			results[i] = &Outcome{ExpenseID: record.ID, Status: record.Status}
		}(i, doc)
	}
	wg.Wait()

	outcomes := make([]Outcome, 0, len(docs))
	for _, res := range results {
		if res != nil {
			outcomes = append(outcomes, *res)
		}
	}
	return outcomes
}

// ingestBatchDocument handles one batch document. Upload and
// extraction are independent network calls here, and batch object keys
// embed no extracted fields, so they run in parallel.
func (c *Coordinator) ingestBatchDocument(ctx context.Context, doc Document) (*models.ExpenseRecord, error) {
	submittedAt := time.Now().UTC()
	key := storage.BuildKey(submittedAt, doc.SenderName, "", doc.MimeType)

	var (
		wg         sync.WaitGroup
		receiptURL string
		uploadErr  error
		result     *models.ExtractionResult
		extractErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		receiptURL, uploadErr = c.store.Upload(ctx, key, doc.Data, doc.MimeType)
	}()
	go func() {
		defer wg.Done()
		result, extractErr = c.extractor.Extract(ctx, doc.Data, doc.MimeType)
	}()
	wg.Wait()

	if uploadErr != nil {
		return nil, fmt.Errorf("storage upload: %w", uploadErr)
	}
	if extractErr != nil {
		// One bad document must never stall the batch: record it with
		// maximal uncertainty and let triage route it to review.
		c.logger.Warn("Extraction failed, recording zero-confidence placeholder",
			zap.String("filename", doc.Filename),
			zap.Error(extractErr))
		result = models.FallbackExtraction()
	}

	record := c.buildRecord(doc, result, receiptURL, submittedAt)
	if err := c.ledger.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("ledger insert: %w", err)
	}

	c.logger.Info("Expense recorded",
		zap.String("id", record.ID),
		zap.String("status", string(record.Status)),
		zap.Float64("confidence", result.Confidence))

	return record, nil
}

// IngestChat handles one interactive chat submission. Extraction is
// sequenced before upload so the object key can embed the merchant,
// and every failure comes back to the caller so the submitter gets
// immediate feedback instead of a silent zero-confidence record.
func (c *Coordinator) IngestChat(ctx context.Context, doc Document) (*models.ExpenseRecord, error) {
	if !IsSupportedType(doc.MimeType) {
		return nil, &UnsupportedTypeError{MimeType: doc.MimeType}
	}

	result, err := c.extractor.Extract(ctx, doc.Data, doc.MimeType)
	if err != nil {
		return nil, err
	}

	submittedAt := time.Now().UTC()
	merchant := ""
	if result.Merchant != nil {
		merchant = *result.Merchant
	}
	key := storage.BuildKey(submittedAt, doc.SenderName, merchant, doc.MimeType)

	receiptURL, err := c.store.Upload(ctx, key, doc.Data, doc.MimeType)
	if err != nil {
		return nil, fmt.Errorf("storage upload: %w", err)
	}

	record := c.buildRecord(doc, result, receiptURL, submittedAt)
	if err := c.ledger.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("ledger insert: %w", err)
	}

	c.logger.Info("Expense recorded from chat",
		zap.String("id", record.ID),
		zap.String("status", string(record.Status)),
		zap.Float64("confidence", result.Confidence))

	return record, nil
}

func (c *Coordinator) buildRecord(doc Document, result *models.ExtractionResult, receiptURL string, submittedAt time.Time) *models.ExpenseRecord {
	raw := result.Raw
	if len(raw) == 0 {
		raw, _ = json.Marshal(result)
	}

	sender := doc.SenderName
	return &models.ExpenseRecord{
		ID:            uuid.NewString(),
		Date:          result.Date,
		Amount:        result.Amount,
		Merchant:      result.Merchant,
		Category:      result.Category,
		Status:        models.StatusForConfidence(result.Confidence),
		ReceiptURL:    &receiptURL,
		RawExtraction: raw,
		SenderName:    &sender,
		ChatID:        doc.ChatID,
		SubmittedAt:   submittedAt,
		CreatedAt:     submittedAt,
	}
}
