// Package api exposes the HTTP boundary: the two intake endpoints, the
// ledger read/mutation endpoints, and the report export.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jraftery/expense-ledger/internal/ingest"
	"github.com/jraftery/expense-ledger/internal/lifecycle"
	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/jraftery/expense-ledger/internal/telegram"
	"go.uber.org/zap"
)

// Ingestor runs normalized documents through the ingestion pipeline.
type Ingestor interface {
	IngestBatch(ctx context.Context, docs []ingest.Document) []ingest.Outcome
	IngestChat(ctx context.Context, doc ingest.Document) (*models.ExpenseRecord, error)
}

// Mutator applies bulk lifecycle mutations.
type Mutator interface {
	Apply(ctx context.Context, req *lifecycle.MutationRequest) (*lifecycle.MutationResult, error)
}

// LedgerReader lists ledger rows for the read and export endpoints.
type LedgerReader interface {
	List(ctx context.Context, filter models.Filter) ([]*models.ExpenseRecord, error)
}

// Confirmer acknowledges successful chat submissions.
type Confirmer interface {
	ConfirmReceipt(ctx context.Context, record *models.ExpenseRecord) error
}

// ReportWriter serializes ledger rows into a spreadsheet.
type ReportWriter interface {
	WriteReport(records []*models.ExpenseRecord) ([]byte, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	coordinator Ingestor
	engine      Mutator
	ledger      LedgerReader
	confirmer   Confirmer
	exporter    ReportWriter
	bot         telegram.Bot
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	coordinator Ingestor,
	engine Mutator,
	ledger LedgerReader,
	confirmer Confirmer,
	exporter ReportWriter,
	bot telegram.Bot,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		coordinator: coordinator,
		engine:      engine,
		ledger:      ledger,
		confirmer:   confirmer,
		exporter:    exporter,
		bot:         bot,
		logger:      logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "expense-ledger",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
