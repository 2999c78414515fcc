// Package notify delivers human-readable status messages back to the
// chats that submitted the affected expenses.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/jraftery/expense-ledger/internal/telegram"
	"go.uber.org/zap"
)

// OutstandingLedger is the read slice of the ledger the notifier needs.
type OutstandingLedger interface {
	ListOutstanding(ctx context.Context, chatID int64) ([]*models.ExpenseRecord, error)
}

// Notifier formats and sends chat messages on status transitions and
// successful chat-channel submissions.
type Notifier struct {
	ledger OutstandingLedger
	bot    telegram.Bot
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(ledger OutstandingLedger, bot telegram.Bot, logger *zap.Logger) *Notifier {
	return &Notifier{
		ledger: ledger,
		bot:    bot,
		logger: logger,
	}
}

// NotifyStatusChange sends one message per submitting chat covering
// every affected row with a chat id. Sends run concurrently; a failed
// delivery is logged and never fails the others or the caller; the
// underlying mutation has already committed.
func (n *Notifier) NotifyStatusChange(ctx context.Context, status models.Status, records []*models.ExpenseRecord) {
	groups := make(map[int64][]*models.ExpenseRecord)
	for _, rec := range records {
		if rec.ChatID == nil {
			continue
		}
		groups[*rec.ChatID] = append(groups[*rec.ChatID], rec)
	}
	if len(groups) == 0 {
		return
	}

	var wg sync.WaitGroup
	for chatID, group := range groups {
		wg.Add(1)
		go func(chatID int64, group []*models.ExpenseRecord) {
			defer wg.Done()
			if err := n.notifyChat(ctx, chatID, status, group); err != nil {
				n.logger.Error("Failed to deliver status notification",
					zap.Int64("chat_id", chatID),
					zap.String("status", string(status)),
					zap.Error(err))
			}
		}(chatID, group)
	}
	wg.Wait()
}

func (n *Notifier) notifyChat(ctx context.Context, chatID int64, status models.Status, records []*models.ExpenseRecord) error {
	var b strings.Builder
	b.WriteString(models.StatusLabel(status))
	b.WriteString(":")
	for _, rec := range records {
		b.WriteString("\n")
		b.WriteString(expenseLine(rec))
	}

	message := telegram.EscapeMarkdown(b.String())
	if summary := n.outstandingBlock(ctx, chatID); summary != "" {
		message += "\n\n" + summary
	}

	return n.bot.SendMarkdown(ctx, chatID, message)
}

// ConfirmReceipt acknowledges a successful chat-channel submission with
// the recorded fields and the sender's outstanding entries.
func (n *Notifier) ConfirmReceipt(ctx context.Context, record *models.ExpenseRecord) error {
	if record.ChatID == nil {
		return nil
	}
	chatID := *record.ChatID

	merchant := "an unknown merchant"
	if record.Merchant != nil {
		merchant = *record.Merchant
	}

	text := fmt.Sprintf("Got it! Recorded %s at %s (%s).",
		models.FormatCurrency(record.Amount),
		merchant,
		models.StatusLabel(record.Status))

	message := telegram.EscapeMarkdown(text)
	if summary := n.outstandingBlock(ctx, chatID); summary != "" {
		message += "\n\n" + summary
	}

	return n.bot.SendMarkdown(ctx, chatID, message)
}

// outstandingBlock renders the chat's outstanding entries as a
// monospace table block, or "" when nothing qualifies. A failed ledger
// read only costs the summary, not the message.
func (n *Notifier) outstandingBlock(ctx context.Context, chatID int64) string {
	records, err := n.ledger.ListOutstanding(ctx, chatID)
	if err != nil {
		n.logger.Error("Failed to load outstanding entries",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return ""
	}

	table := RenderSummaryTable(records)
	if table == "" {
		return ""
	}

	return "Outstanding expenses:\n```\n" + table + "\n```"
}
