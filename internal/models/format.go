package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatusLabels maps statuses to the human-readable form used in chat
// messages and the outstanding summary.
var StatusLabels = map[Status]string{
	StatusPending:     "Pending",
	StatusNeedsReview: "Under review",
	StatusApproved:    "Approved",
	StatusReimbursed:  "Reimbursed",
}

// StatusLabel returns the display label for s, falling back to the raw value.
func StatusLabel(s Status) string {
	if label, ok := StatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// FormatCurrency renders an amount as en-US USD, e.g. "$1,234.56".
// A nil amount renders as "-".
func FormatCurrency(amount *decimal.Decimal) string {
	if amount == nil {
		return "-"
	}
	neg := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("$")
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(",")
		}
		b.WriteRune(digit)
	}
	b.WriteString(".")
	b.WriteString(frac)
	return b.String()
}

// FormatDate renders an ISO date (YYYY-MM-DD) as "Jan 2, 2006".
// A nil or unparseable date renders as "-".
func FormatDate(date *string) string {
	if date == nil || *date == "" {
		return "-"
	}
	t, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}

// FormatDay renders a timestamp as "Jan 2, 2006" in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}
