package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/jraftery/expense-ledger/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.Run("../../migrations"))

	return NewRepository(db.DB, zap.NewNop())
}

func testRecord(id string, submittedAt time.Time) *models.ExpenseRecord {
	amount := decimal.RequireFromString("42.10")
	date := "2026-08-05"
	merchant := "Starbucks"
	category := "meals"
	sender := "jane@example.com"
	url := "https://example.com/receipts/x.jpg"

	return &models.ExpenseRecord{
		ID:            id,
		Date:          &date,
		Amount:        &amount,
		Merchant:      &merchant,
		Category:      &category,
		Status:        models.StatusPending,
		ReceiptURL:    &url,
		RawExtraction: []byte(`{"confidence": 0.95}`),
		SenderName:    &sender,
		SubmittedAt:   submittedAt,
		CreatedAt:     submittedAt,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	chatID := int64(101)
	rec := testRecord("exp-1", now)
	rec.ChatID = &chatID
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, "exp-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "exp-1", got.ID)
	assert.Equal(t, "2026-08-05", *got.Date)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("42.10")), "amounts survive storage exactly")
	assert.Equal(t, "Starbucks", *got.Merchant)
	assert.Equal(t, "meals", *got.Category)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, int64(101), *got.ChatID)
	assert.JSONEq(t, `{"confidence": 0.95}`, string(got.RawExtraction))
	assert.Nil(t, got.ApprovedAt)
	assert.Nil(t, got.ReimbursedAt)
	assert.False(t, got.Archived)
}

func TestGetByID_Absent(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreate_SparseRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := &models.ExpenseRecord{
		ID:          "sparse",
		Status:      models.StatusNeedsReview,
		SubmittedAt: now,
		CreatedAt:   now,
	}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.GetByID(ctx, "sparse")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Date)
	assert.Nil(t, got.Amount)
	assert.Nil(t, got.Merchant)
	assert.Nil(t, got.ChatID)
}

func TestList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		rec := testRecord(id, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, rec))
	}

	records, err := repo.List(ctx, models.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "new", records[0].ID, "newest submissions first")
	assert.Equal(t, "mid", records[1].ID)
	assert.Equal(t, "old", records[2].ID)
}

func TestList_Filters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	early := testRecord("early", base)
	earlyDate := "2026-07-01"
	early.Date = &earlyDate
	require.NoError(t, repo.Create(ctx, early))

	approved := testRecord("approved", base.Add(time.Hour))
	approved.Status = models.StatusApproved
	require.NoError(t, repo.Create(ctx, approved))

	travel := testRecord("travel", base.Add(2*time.Hour))
	travelCat := "travel_airfare"
	travel.Category = &travelCat
	bob := "bob@example.com"
	travel.SenderName = &bob
	require.NoError(t, repo.Create(ctx, travel))

	records, err := repo.List(ctx, models.Filter{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "approved", records[0].ID)

	records, err = repo.List(ctx, models.Filter{StartDate: "2026-08-01"})
	require.NoError(t, err)
	assert.Len(t, records, 2, "date range applies to the transaction date")

	records, err = repo.List(ctx, models.Filter{EndDate: "2026-07-31"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "early", records[0].ID)

	records, err = repo.List(ctx, models.Filter{Categories: []string{"travel_airfare", "lodging"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "travel", records[0].ID)

	records, err = repo.List(ctx, models.Filter{SenderName: "bob@example.com"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "travel", records[0].ID)
}

func TestList_ExcludesArchivedByDefault(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, testRecord("visible", now)))
	require.NoError(t, repo.Create(ctx, testRecord("hidden", now)))

	_, err := repo.SetArchived(ctx, []string{"hidden"}, true, now)
	require.NoError(t, err)

	records, err := repo.List(ctx, models.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "visible", records[0].ID)

	records, err = repo.List(ctx, models.Filter{Archived: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hidden", records[0].ID)
}

func TestList_Pagination(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		require.NoError(t, repo.Create(ctx, testRecord(id, base.Add(time.Duration(i)*time.Minute))))
	}

	records, err := repo.List(ctx, models.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "e", records[0].ID)

	records, err = repo.List(ctx, models.Filter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, testRecord("a", now)))
	require.NoError(t, repo.Create(ctx, testRecord("b", now)))

	records, err := repo.UpdateStatus(ctx, []string{"a", "b", "ghost"}, models.StatusApproved, now)
	require.NoError(t, err)
	require.Len(t, records, 2, "unknown ids are silently absent")

	for _, rec := range records {
		assert.Equal(t, models.StatusApproved, rec.Status)
		require.NotNil(t, rec.ApprovedAt)
		assert.Nil(t, rec.ReimbursedAt)
	}

	// Reimbursement stamps its own timestamp and keeps approved_at.
	records, err = repo.UpdateStatus(ctx, []string{"a"}, models.StatusReimbursed, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].ApprovedAt)
	require.NotNil(t, records[0].ReimbursedAt)
}

func TestUpdateStatus_ReapplyRewritesTimestamp(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testRecord("a", now)))

	first, err := repo.UpdateStatus(ctx, []string{"a"}, models.StatusApproved, now)
	require.NoError(t, err)
	second, err := repo.UpdateStatus(ctx, []string{"a"}, models.StatusApproved, now.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, second[0].ApprovedAt.After(*first[0].ApprovedAt))
}

func TestSetArchived(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Create(ctx, testRecord("a", now)))

	records, err := repo.SetArchived(ctx, []string{"a"}, true, now)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Archived)
	require.NotNil(t, records[0].ArchivedAt)

	records, err = repo.SetArchived(ctx, []string{"a"}, false, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Archived)
	assert.Nil(t, records[0].ArchivedAt, "unarchiving clears the timestamp")
}

func TestUpdateCategory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, testRecord("a", now)))

	records, err := repo.UpdateCategory(ctx, []string{"a"}, "lodging")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "lodging", *records[0].Category)
}

func TestListOutstanding(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	chatA, chatB := int64(101), int64(202)

	add := func(id string, chatID *int64, status models.Status, offset time.Duration) {
		rec := testRecord(id, base.Add(offset))
		rec.ChatID = chatID
		rec.Status = status
		require.NoError(t, repo.Create(ctx, rec))
	}

	add("pending", &chatA, models.StatusPending, 0)
	add("review", &chatA, models.StatusNeedsReview, time.Minute)
	add("approved", &chatA, models.StatusApproved, 2*time.Minute)
	add("reimbursed", &chatA, models.StatusReimbursed, 3*time.Minute)
	add("other-chat", &chatB, models.StatusPending, 4*time.Minute)
	add("no-chat", nil, models.StatusPending, 5*time.Minute)

	archived := testRecord("archived", base.Add(6*time.Minute))
	archived.ChatID = &chatA
	require.NoError(t, repo.Create(ctx, archived))
	_, err := repo.SetArchived(ctx, []string{"archived"}, true, base)
	require.NoError(t, err)

	records, err := repo.ListOutstanding(ctx, chatA)
	require.NoError(t, err)
	require.Len(t, records, 3)

	ids := []string{records[0].ID, records[1].ID, records[2].ID}
	assert.Equal(t, []string{"approved", "review", "pending"}, ids,
		"reimbursed and archived entries drop out, newest first")
}
