package extract

import (
	"fmt"
	"strings"

	"github.com/jraftery/expense-ledger/internal/models"
)

// documentPrompt is the fixed instruction set sent with every document.
// The model is asked for exactly one JSON object with six fields; the
// parser tolerates surrounding prose anyway.
func documentPrompt() string {
	return fmt.Sprintf(`You are a financial document parsing assistant. Analyze this document (receipt, check, or invoice) and extract the following information.

Return ONLY a JSON object with these fields:
{
  "document_type": "one of: receipt, check, invoice, other",
  "date": "YYYY-MM-DD format, or null if not found",
  "merchant": "Store/business/payee name, or null if not found",
  "amount": 123.45,
  "category": "One of: %s",
  "confidence": 0.95
}

Rules:
- For receipts: extract the TOTAL amount (after tax), not the subtotal. Use the transaction date, not the print date.
- For checks: use the numeric amount, not the spelled-out amount. The merchant field holds the payee line. The date is the check date.
- For invoices: use the total amount due. The merchant field holds the vendor name.
- Return amount as a number, or null if not found.
- For category, choose the most specific match from the list. Infer from the merchant or memo line if there is no line-item detail.
- Set confidence lower if any field is blurry, partially visible, ambiguous, or illegible.
- If you cannot determine a field, set it to null and lower confidence accordingly. Never guess.
- Return ONLY the JSON object, no other text`, strings.Join(models.Categories, ", "))
}
