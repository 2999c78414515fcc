package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jraftery/expense-ledger/internal/ingest"
	"go.uber.org/zap"
)

// HandleIngest handles POST /api/ingest, the forwarded-email batch
// channel. The response is always 200: the upstream mail forwarder
// retries non-2xx responses, and a retry storm of the same broken
// attachment helps nobody. Failures are visible in the body and logs
// only.
func (h *Handlers) HandleIngest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Error("Failed to parse ingest form", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "Processing failed", "detail": err.Error()})
		return
	}

	docs, err := ingest.DocumentsFromEmailForm(form)
	if err != nil {
		h.logger.Error("Failed to normalize ingest submission", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": "Processing failed", "detail": err.Error()})
		return
	}

	if len(docs) == 0 {
		h.logger.Info("Ingest submission had no attachments")
		c.JSON(http.StatusOK, gin.H{"processed": 0})
		return
	}

	outcomes := h.coordinator.IngestBatch(c.Request.Context(), docs)

	h.logger.Info("Batch ingest completed",
		zap.Int("submitted", len(docs)),
		zap.Int("processed", len(outcomes)))

	c.JSON(http.StatusOK, gin.H{
		"processed": len(outcomes),
		"results":   outcomes,
	})
}
