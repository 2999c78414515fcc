package notify

import (
	"strconv"
	"strings"

	"github.com/jraftery/expense-ledger/internal/models"
)

// maxSummaryRows caps how many outstanding entries appear in one
// summary table; the overflow count goes into a trailer line.
const maxSummaryRows = 10

// RenderSummaryTable renders outstanding entries as a fixed-width,
// pipe-delimited three-column table. Column widths are the maximum of
// the header label and the longest value in that column, so the
// delimiters align vertically whatever the content. Returns "" when
// there are no rows.
func RenderSummaryTable(records []*models.ExpenseRecord) string {
	if len(records) == 0 {
		return ""
	}

	visible := records
	if len(visible) > maxSummaryRows {
		visible = visible[:maxSummaryRows]
	}

	type row struct {
		amount, date, status string
	}
	rows := make([]row, 0, len(visible))
	for _, rec := range visible {
		rows = append(rows, row{
			amount: models.FormatCurrency(rec.Amount),
			date:   models.FormatDay(rec.SubmittedAt),
			status: models.StatusLabel(rec.Status),
		})
	}

	amountWidth := len("Amount")
	dateWidth := len("Submitted")
	statusWidth := len("Status")
	for _, r := range rows {
		if len(r.amount) > amountWidth {
			amountWidth = len(r.amount)
		}
		if len(r.date) > dateWidth {
			dateWidth = len(r.date)
		}
		if len(r.status) > statusWidth {
			statusWidth = len(r.status)
		}
	}

	var b strings.Builder
	b.WriteString(pad("Amount", amountWidth))
	b.WriteString(" | ")
	b.WriteString(pad("Submitted", dateWidth))
	b.WriteString(" | ")
	b.WriteString(pad("Status", statusWidth))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(pad(r.amount, amountWidth))
		b.WriteString(" | ")
		b.WriteString(pad(r.date, dateWidth))
		b.WriteString(" | ")
		b.WriteString(r.status)
	}

	if overflow := len(records) - maxSummaryRows; overflow > 0 {
		b.WriteString("\n...and ")
		b.WriteString(strconv.Itoa(overflow))
		b.WriteString(" more")
	}

	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
