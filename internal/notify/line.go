package notify

import (
	"fmt"

	"github.com/jraftery/expense-ledger/internal/models"
)

// expenseLine renders one expense as a bulleted summary line, e.g.
// "• $42.10 as of Aug 5, 2026 at Starbucks".
func expenseLine(rec *models.ExpenseRecord) string {
	merchant := "-"
	if rec.Merchant != nil {
		merchant = *rec.Merchant
	}
	return fmt.Sprintf("• %s as of %s at %s",
		models.FormatCurrency(rec.Amount),
		models.FormatDate(rec.Date),
		merchant)
}
