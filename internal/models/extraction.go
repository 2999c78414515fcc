package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DocumentType classifies what kind of financial document was submitted.
type DocumentType string

const (
	DocumentReceipt DocumentType = "receipt"
	DocumentCheck   DocumentType = "check"
	DocumentInvoice DocumentType = "invoice"
	DocumentOther   DocumentType = "other"
)

// IsValid reports whether t is a known document type.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentReceipt, DocumentCheck, DocumentInvoice, DocumentOther:
		return true
	}
	return false
}

// ExtractionResult holds the structured fields pulled out of one
// document by the vision model. It is consumed immediately by the
// ingestion coordinator; only the raw payload survives on the record.
type ExtractionResult struct {
	DocumentType DocumentType     `json:"document_type"`
	Date         *string          `json:"date"`
	Merchant     *string          `json:"merchant"`
	Amount       *decimal.Decimal `json:"amount"`
	Category     *string          `json:"category"`
	Confidence   float64          `json:"confidence"`

	// Raw is the JSON object as returned by the model, kept for audit.
	Raw json.RawMessage `json:"-"`
}

// FallbackExtraction is the maximal-uncertainty result used when the
// model's output is unusable on the batch channel: all fields null,
// confidence zero, so triage always routes the record to review.
func FallbackExtraction() *ExtractionResult {
	return &ExtractionResult{
		DocumentType: DocumentOther,
		Confidence:   0,
	}
}
