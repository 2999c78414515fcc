package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeBot struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

func (b *fakeBot) SendText(ctx context.Context, chatID int64, text string) error {
	return b.record(chatID, text)
}

func (b *fakeBot) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	return b.record(chatID, text)
}

func (b *fakeBot) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBot) record(chatID int64, text string) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.mu.Lock()
	b.sent = append(b.sent, sentMessage{chatID: chatID, text: text})
	b.mu.Unlock()
	return nil
}

func (b *fakeBot) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

type fakeOutstanding struct {
	records map[int64][]*models.ExpenseRecord
	err     error
}

func (l *fakeOutstanding) ListOutstanding(ctx context.Context, chatID int64) ([]*models.ExpenseRecord, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.records[chatID], nil
}

func chatRecord(id string, chatID int64, amount, merchant string) *models.ExpenseRecord {
	amt := decimal.RequireFromString(amount)
	date := "2026-08-05"
	return &models.ExpenseRecord{
		ID:          id,
		ChatID:      &chatID,
		Amount:      &amt,
		Merchant:    &merchant,
		Date:        &date,
		Status:      models.StatusApproved,
		SubmittedAt: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestNotifyStatusChange_GroupsByChat(t *testing.T) {
	bot := &fakeBot{}
	notifier := NewNotifier(&fakeOutstanding{}, bot, zap.NewNop())

	records := []*models.ExpenseRecord{
		chatRecord("a", 101, "10.00", "Alpha"),
		chatRecord("b", 101, "20.00", "Beta"),
		chatRecord("c", 202, "30.00", "Gamma"),
	}
	notifier.NotifyStatusChange(context.Background(), models.StatusApproved, records)

	sent := bot.messages()
	require.Len(t, sent, 2, "one message per chat, however many rows it covers")

	byChat := map[int64]string{}
	for _, m := range sent {
		byChat[m.chatID] = m.text
	}
	assert.Contains(t, byChat[101], "Approved:")
	assert.Contains(t, byChat[101], "Alpha")
	assert.Contains(t, byChat[101], "Beta")
	assert.NotContains(t, byChat[101], "Gamma")
	assert.Contains(t, byChat[202], "Gamma")
}

func TestNotifyStatusChange_SkipsRecordsWithoutChat(t *testing.T) {
	bot := &fakeBot{}
	notifier := NewNotifier(&fakeOutstanding{}, bot, zap.NewNop())

	rec := chatRecord("a", 101, "10.00", "Alpha")
	rec.ChatID = nil
	notifier.NotifyStatusChange(context.Background(), models.StatusApproved, []*models.ExpenseRecord{rec})

	assert.Empty(t, bot.messages(), "batch-channel rows have no reply route")
}

func TestNotifyStatusChange_DeliveryFailureIsSwallowed(t *testing.T) {
	bot := &fakeBot{sendErr: errors.New("chat not found")}
	notifier := NewNotifier(&fakeOutstanding{}, bot, zap.NewNop())

	// Must not panic or propagate; the mutation already committed.
	notifier.NotifyStatusChange(context.Background(), models.StatusApproved,
		[]*models.ExpenseRecord{chatRecord("a", 101, "10.00", "Alpha")})
}

func TestNotifyStatusChange_IncludesOutstandingSummary(t *testing.T) {
	outstanding := &fakeOutstanding{records: map[int64][]*models.ExpenseRecord{
		101: {chatRecord("o1", 101, "99.00", "Omega")},
	}}
	bot := &fakeBot{}
	notifier := NewNotifier(outstanding, bot, zap.NewNop())

	notifier.NotifyStatusChange(context.Background(), models.StatusApproved,
		[]*models.ExpenseRecord{chatRecord("a", 101, "10.00", "Alpha")})

	sent := bot.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].text, "Outstanding expenses:")
	assert.Contains(t, sent[0].text, "```")
	assert.Contains(t, sent[0].text, "$99.00")
}

func TestNotifyStatusChange_SummaryFailureOnlyCostsSummary(t *testing.T) {
	bot := &fakeBot{}
	notifier := NewNotifier(&fakeOutstanding{err: errors.New("db locked")}, bot, zap.NewNop())

	notifier.NotifyStatusChange(context.Background(), models.StatusApproved,
		[]*models.ExpenseRecord{chatRecord("a", 101, "10.00", "Alpha")})

	sent := bot.messages()
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].text, "Outstanding")
}

func TestConfirmReceipt(t *testing.T) {
	bot := &fakeBot{}
	notifier := NewNotifier(&fakeOutstanding{}, bot, zap.NewNop())

	rec := chatRecord("a", 101, "42.10", "Starbucks")
	rec.Status = models.StatusPending
	require.NoError(t, notifier.ConfirmReceipt(context.Background(), rec))

	sent := bot.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(101), sent[0].chatID)
	assert.Contains(t, sent[0].text, "Recorded")
	assert.Contains(t, sent[0].text, "42")
	assert.Contains(t, sent[0].text, "Starbucks")
	assert.Contains(t, sent[0].text, "Pending")
}

func TestConfirmReceipt_NoChatIsNoOp(t *testing.T) {
	bot := &fakeBot{}
	notifier := NewNotifier(&fakeOutstanding{}, bot, zap.NewNop())

	rec := chatRecord("a", 101, "42.10", "Starbucks")
	rec.ChatID = nil
	require.NoError(t, notifier.ConfirmReceipt(context.Background(), rec))
	assert.Empty(t, bot.messages())
}
