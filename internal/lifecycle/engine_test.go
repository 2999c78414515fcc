package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ledgerCall struct {
	method   string
	ids      []string
	status   models.Status
	archived bool
	category string
}

// fakeLedger records calls and returns one row per known id,
// mimicking the store's silent-miss behavior for unknown ids.
type fakeLedger struct {
	known map[string]bool
	calls []ledgerCall
	err   error
}

func (l *fakeLedger) matched(ids []string, status models.Status) []*models.ExpenseRecord {
	var records []*models.ExpenseRecord
	for _, id := range ids {
		if l.known[id] {
			records = append(records, &models.ExpenseRecord{ID: id, Status: status})
		}
	}
	return records
}

func (l *fakeLedger) UpdateStatus(ctx context.Context, ids []string, status models.Status, now time.Time) ([]*models.ExpenseRecord, error) {
	l.calls = append(l.calls, ledgerCall{method: "UpdateStatus", ids: ids, status: status})
	if l.err != nil {
		return nil, l.err
	}
	return l.matched(ids, status), nil
}

func (l *fakeLedger) SetArchived(ctx context.Context, ids []string, archived bool, now time.Time) ([]*models.ExpenseRecord, error) {
	l.calls = append(l.calls, ledgerCall{method: "SetArchived", ids: ids, archived: archived})
	if l.err != nil {
		return nil, l.err
	}
	return l.matched(ids, models.StatusPending), nil
}

func (l *fakeLedger) UpdateCategory(ctx context.Context, ids []string, category string) ([]*models.ExpenseRecord, error) {
	l.calls = append(l.calls, ledgerCall{method: "UpdateCategory", ids: ids, category: category})
	if l.err != nil {
		return nil, l.err
	}
	return l.matched(ids, models.StatusPending), nil
}

type notifyCall struct {
	status  models.Status
	records []*models.ExpenseRecord
}

type fakeNotifier struct {
	calls []notifyCall
}

func (n *fakeNotifier) NotifyStatusChange(ctx context.Context, status models.Status, records []*models.ExpenseRecord) {
	n.calls = append(n.calls, notifyCall{status: status, records: records})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		req     MutationRequest
		want    MutationClass
		wantErr bool
	}{
		{"status", MutationRequest{IDs: []string{"a"}, Status: "approved"}, ClassStatus, false},
		{"category", MutationRequest{IDs: []string{"a"}, Category: "meals"}, ClassCategory, false},
		{"archive", MutationRequest{IDs: []string{"a"}, Action: "archive"}, ClassArchive, false},
		{"unarchive", MutationRequest{IDs: []string{"a"}, Action: "unarchive"}, ClassArchive, false},
		{"action beats category and status", MutationRequest{IDs: []string{"a"}, Action: "archive", Category: "meals", Status: "approved"}, ClassArchive, false},
		{"category beats status", MutationRequest{IDs: []string{"a"}, Category: "meals", Status: "approved"}, ClassCategory, false},
		{"empty ids", MutationRequest{Status: "approved"}, "", true},
		{"no mutation field", MutationRequest{IDs: []string{"a"}}, "", true},
		{"invalid status", MutationRequest{IDs: []string{"a"}, Status: "done"}, "", true},
		{"invalid action", MutationRequest{IDs: []string{"a"}, Action: "delete"}, "", true},
		{"invalid category", MutationRequest{IDs: []string{"a"}, Category: "gambling"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := Classify(&tt.req)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, class)
		})
	}
}

func TestApply_StatusMutationNotifies(t *testing.T) {
	ledger := &fakeLedger{known: map[string]bool{"a": true, "c": true}}
	notifier := &fakeNotifier{}
	engine := NewEngine(ledger, notifier, zap.NewNop())

	result, err := engine.Apply(context.Background(), &MutationRequest{
		IDs:    []string{"a", "b", "c"},
		Status: "approved",
	})
	require.NoError(t, err)

	assert.Equal(t, ClassStatus, result.Class)
	assert.Equal(t, models.StatusApproved, result.Status)
	require.Len(t, result.Records, 2, "unknown id b is silently absent")
	assert.Equal(t, "a", result.Records[0].ID)
	assert.Equal(t, "c", result.Records[1].ID)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, models.StatusApproved, notifier.calls[0].status)
	assert.Len(t, notifier.calls[0].records, 2)
}

func TestApply_ReimbursedNotifies(t *testing.T) {
	ledger := &fakeLedger{known: map[string]bool{"a": true}}
	notifier := &fakeNotifier{}
	engine := NewEngine(ledger, notifier, zap.NewNop())

	_, err := engine.Apply(context.Background(), &MutationRequest{IDs: []string{"a"}, Status: "reimbursed"})
	require.NoError(t, err)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, models.StatusReimbursed, notifier.calls[0].status)
}

func TestApply_NonTerminalStatusDoesNotNotify(t *testing.T) {
	for _, status := range []string{"pending", "needs_review"} {
		ledger := &fakeLedger{known: map[string]bool{"a": true}}
		notifier := &fakeNotifier{}
		engine := NewEngine(ledger, notifier, zap.NewNop())

		_, err := engine.Apply(context.Background(), &MutationRequest{IDs: []string{"a"}, Status: status})
		require.NoError(t, err)
		assert.Empty(t, notifier.calls, status)
	}
}

func TestApply_ArchiveMutation(t *testing.T) {
	ledger := &fakeLedger{known: map[string]bool{"a": true}}
	notifier := &fakeNotifier{}
	engine := NewEngine(ledger, notifier, zap.NewNop())

	result, err := engine.Apply(context.Background(), &MutationRequest{IDs: []string{"a"}, Action: "archive"})
	require.NoError(t, err)

	assert.Equal(t, ClassArchive, result.Class)
	require.Len(t, ledger.calls, 1)
	assert.Equal(t, "SetArchived", ledger.calls[0].method)
	assert.True(t, ledger.calls[0].archived)
	assert.Empty(t, notifier.calls, "archival never notifies")
}

func TestApply_CategoryMutation(t *testing.T) {
	ledger := &fakeLedger{known: map[string]bool{"a": true}}
	engine := NewEngine(ledger, &fakeNotifier{}, zap.NewNop())

	result, err := engine.Apply(context.Background(), &MutationRequest{IDs: []string{"a"}, Category: "lodging"})
	require.NoError(t, err)

	assert.Equal(t, ClassCategory, result.Class)
	require.Len(t, ledger.calls, 1)
	assert.Equal(t, "UpdateCategory", ledger.calls[0].method)
	assert.Equal(t, "lodging", ledger.calls[0].category)
}

func TestApply_ValidationFailureTouchesNothing(t *testing.T) {
	ledger := &fakeLedger{known: map[string]bool{"a": true}}
	notifier := &fakeNotifier{}
	engine := NewEngine(ledger, notifier, zap.NewNop())

	_, err := engine.Apply(context.Background(), &MutationRequest{IDs: nil, Status: "approved"})
	require.Error(t, err)

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Empty(t, ledger.calls)
	assert.Empty(t, notifier.calls)
}

func TestApply_LedgerFailureSkipsNotification(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("db locked")}
	notifier := &fakeNotifier{}
	engine := NewEngine(ledger, notifier, zap.NewNop())

	_, err := engine.Apply(context.Background(), &MutationRequest{IDs: []string{"a"}, Status: "approved"})
	require.Error(t, err)
	assert.Empty(t, notifier.calls, "notification only happens after the mutation commits")
}
