package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/ledger"
	"github.com/stumpedhq/clubpay/internal/paycalc"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PlayerLines(ctx context.Context, player identity.PlayerRef) ([]ledger.OutstandingLine, error) {
	args := m.Called(ctx, player)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.OutstandingLine), args.Error(1)
}

func paidLine(matchID int64, split, paid ledger.Money, occurredAt time.Time) ledger.OutstandingLine {
	l := &ledger.ParticipantLine{
		ID:          matchID * 10,
		MatchID:     matchID,
		PlayerPhone: "919876543210",
		SplitAmount: split,
	}
	if paid > 0 {
		l.Transactions = append(l.Transactions, ledger.Transaction{
			ID:         "tx-1",
			LineID:     l.ID,
			Amount:     paid,
			Kind:       ledger.TransactionKindPayment,
			Method:     "UPI",
			OccurredAt: occurredAt,
		})
	}
	l.Recompute()
	return ledger.OutstandingLine{
		MatchID:   matchID,
		MatchDate: occurredAt.Add(-24 * time.Hour),
		Line:      l,
	}
}

func TestSummaryAggregatesAcrossMatches(t *testing.T) {
	store := new(mockStore)
	player := identity.NewPlayerRef(nil, "9876543210")
	now := time.Now().UTC()
	store.On("PlayerLines", mock.Anything, player).Return([]ledger.OutstandingLine{
		paidLine(1, 10000, 10000, now.Add(-48*time.Hour)),
		paidLine(2, 12000, 5000, now),
	}, nil)

	svc := NewService(store, zap.NewNop())
	summary, err := svc.Summary(context.Background(), player)
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(22000), summary.TotalExpected)
	assert.Equal(t, ledger.Money(15000), summary.TotalPaid)
	assert.Equal(t, ledger.Money(7000), summary.TotalDue)
	assert.Equal(t, 2, summary.MatchesPlayed)
}

func TestTimelineOrdersEntriesChronologically(t *testing.T) {
	store := new(mockStore)
	player := identity.NewPlayerRef(nil, "9876543210")
	now := time.Now().UTC()
	// The newer match paid first; the timeline must still sort by time.
	store.On("PlayerLines", mock.Anything, player).Return([]ledger.OutstandingLine{
		paidLine(2, 12000, 5000, now.Add(-time.Hour)),
		paidLine(1, 10000, 10000, now.Add(-48*time.Hour)),
	}, nil)

	svc := NewService(store, zap.NewNop())
	entries, err := svc.Timeline(context.Background(), player)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].MatchID)
	assert.Equal(t, int64(2), entries[1].MatchID)
	assert.Equal(t, paycalc.EntryTypePayment, entries[0].Type)
}

func TestSummaryEmptyPlayer(t *testing.T) {
	store := new(mockStore)
	player := identity.NewPlayerRef(nil, "9999999999")
	store.On("PlayerLines", mock.Anything, player).Return(nil, nil)

	svc := NewService(store, zap.NewNop())
	summary, err := svc.Summary(context.Background(), player)
	require.NoError(t, err)
	assert.Equal(t, paycalc.PlayerSummary{}, summary)
}
