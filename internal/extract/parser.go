package extract

import (
	"encoding/json"
	"fmt"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// wireResult mirrors the JSON object the model is instructed to emit.
type wireResult struct {
	DocumentType *string          `json:"document_type"`
	Date         *string          `json:"date"`
	Merchant     *string          `json:"merchant"`
	Amount       *decimal.Decimal `json:"amount"`
	Category     *string          `json:"category"`
	Confidence   *float64         `json:"confidence"`
}

// parseResponse turns free-form model output into an ExtractionResult.
// The model is told to emit bare JSON but routinely wraps it in prose or
// markdown fences, so the first balanced JSON object substring is used.
func parseResponse(content string) (*models.ExtractionResult, error) {
	raw, ok := firstJSONObject(content)
	if !ok {
		return nil, &Error{Reason: "the response contained no readable data"}
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, &Error{Reason: "the extracted data was malformed", Err: err}
	}

	result := &models.ExtractionResult{
		Date:     wire.Date,
		Merchant: wire.Merchant,
		Raw:      json.RawMessage(raw),
	}

	if wire.DocumentType == nil {
		result.DocumentType = models.DocumentOther
	} else {
		result.DocumentType = models.DocumentType(*wire.DocumentType)
		if !result.DocumentType.IsValid() {
			return nil, &Error{Reason: fmt.Sprintf("unrecognized document type %q", *wire.DocumentType)}
		}
	}

	// Ledger invariants: amounts are non-negative, categories come from
	// the fixed set. Anything else is dropped rather than recorded; the
	// raw payload keeps what the model actually said.
	if wire.Amount != nil && !wire.Amount.IsNegative() {
		result.Amount = wire.Amount
	}
	if wire.Category != nil && models.IsValidCategory(*wire.Category) {
		result.Category = wire.Category
	}

	if wire.Confidence != nil {
		result.Confidence = clamp01(*wire.Confidence)
	}

	return result, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// firstJSONObject returns the first balanced JSON object substring of
// content, tracking string literals and escapes so braces inside quoted
// values do not terminate the scan.
func firstJSONObject(content string) (string, bool) {
	start := -1
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		ch := content[i]

		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}

	// Truncated output: opening brace without a matching close
	return "", false
}
