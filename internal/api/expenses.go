package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jraftery/expense-ledger/internal/lifecycle"
	"github.com/jraftery/expense-ledger/internal/models"
	"go.uber.org/zap"
)

// HandleListExpenses handles GET /api/expenses
func (h *Handlers) HandleListExpenses(c *gin.Context) {
	filter := filterFromQuery(c)

	records, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list expenses"})
		return
	}

	if records == nil {
		records = []*models.ExpenseRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses": records,
		"pagination": gin.H{
			"limit":  filter.Limit,
			"offset": filter.Offset,
		},
	})
}

// HandleMutateExpenses handles PATCH /api/expenses: one bulk mutation
// (status, archive action, or category) over an id set.
func (h *Handlers) HandleMutateExpenses(c *gin.Context) {
	var req lifecycle.MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.engine.Apply(c.Request.Context(), &req)
	if err != nil {
		var validationErr *lifecycle.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		h.logger.Error("Lifecycle mutation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mutation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": mutationRows(result)})
}

// mutationRows shapes the response rows to the mutated field(s) plus
// identifier, matching what the caller asked to change.
func mutationRows(result *lifecycle.MutationResult) []gin.H {
	rows := make([]gin.H, 0, len(result.Records))
	for _, rec := range result.Records {
		switch result.Class {
		case lifecycle.ClassArchive:
			rows = append(rows, gin.H{
				"id":          rec.ID,
				"archived":    rec.Archived,
				"archived_at": rec.ArchivedAt,
			})
		case lifecycle.ClassCategory:
			rows = append(rows, gin.H{
				"id":       rec.ID,
				"category": rec.Category,
			})
		case lifecycle.ClassStatus:
			row := gin.H{
				"id":     rec.ID,
				"status": rec.Status,
			}
			// Approval and reimbursement stamp a timestamp in the same
			// mutation, so those rows carry it as well.
			switch result.Status {
			case models.StatusApproved:
				row["approved_at"] = rec.ApprovedAt
			case models.StatusReimbursed:
				row["reimbursed_at"] = rec.ReimbursedAt
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// HandleExportExpenses handles GET /api/expenses/export, returning the
// filtered ledger as a spreadsheet download.
func (h *Handlers) HandleExportExpenses(c *gin.Context) {
	filter := filterFromQuery(c)
	// Exports are bounded the same way listings are; large ledgers page
	// through with offset.
	records, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to load expenses for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load expenses"})
		return
	}

	data, err := h.exporter.WriteReport(records)
	if err != nil {
		h.logger.Error("Failed to generate expense report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	filename := "expenses-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func filterFromQuery(c *gin.Context) models.Filter {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}

	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var categories []string
	if raw := c.Query("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				categories = append(categories, cat)
			}
		}
	}

	return models.Filter{
		StartDate:  c.Query("start"),
		EndDate:    c.Query("end"),
		Status:     c.Query("status"),
		SenderName: c.Query("who"),
		Categories: categories,
		Archived:   c.Query("archived") == "true",
		Limit:      limit,
		Offset:     offset,
	}
}
