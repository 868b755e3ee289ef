package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/ledger"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetLine(ctx context.Context, lineID int64) (*ledger.ParticipantLine, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ParticipantLine), args.Error(1)
}

func (m *mockStore) PersistSettlement(ctx context.Context, line *ledger.ParticipantLine, ev *ledger.SettlementEvent) error {
	args := m.Called(ctx, line, ev)
	return args.Error(0)
}

func overpaidLine(t *testing.T, effective, paid ledger.Money) *ledger.ParticipantLine {
	t.Helper()
	line := &ledger.ParticipantLine{ID: 5, MatchID: 3, SplitAmount: effective}
	_, err := ledger.ApplyPayment(line, paid, ledger.TransactionMeta{Method: "UPI"})
	require.NoError(t, err)
	require.Equal(t, ledger.LineStatusOverpaid, line.Status)
	return line
}

func TestSettleOverpaidLine(t *testing.T) {
	line := overpaidLine(t, 50000, 53000)

	store := new(mockStore)
	store.On("GetLine", mock.Anything, int64(5)).Return(line, nil)
	store.On("PersistSettlement", mock.Anything, line, mock.Anything).Return(nil)

	svc := NewService(store, zap.NewNop())
	receipt, err := svc.Settle(context.Background(), 5, "admin-asha", "refunded")
	require.NoError(t, err)

	assert.Equal(t, ledger.Money(3000), receipt.AmountSettled)
	assert.Equal(t, ledger.LineStatusPaid, receipt.NewStatus)
	assert.Equal(t, int64(5), receipt.LineID)
	assert.Equal(t, int64(3), receipt.MatchID)

	// Re-derivation from events agrees with the receipt.
	line.Recompute()
	assert.Equal(t, ledger.Money(3000), line.SettledTotal)
	assert.Equal(t, ledger.LineStatusPaid, line.Status)
	store.AssertExpectations(t)
}

func TestSettleNothingToSettle(t *testing.T) {
	line := &ledger.ParticipantLine{ID: 5, SplitAmount: 50000}
	line.Recompute()

	store := new(mockStore)
	store.On("GetLine", mock.Anything, int64(5)).Return(line, nil)

	svc := NewService(store, zap.NewNop())
	_, err := svc.Settle(context.Background(), 5, "admin", "")
	assert.ErrorIs(t, err, ledger.ErrNothingToSettle)
	store.AssertNotCalled(t, "PersistSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleLineNotFound(t *testing.T) {
	store := new(mockStore)
	store.On("GetLine", mock.Anything, int64(99)).Return(nil, nil)

	svc := NewService(store, zap.NewNop())
	_, err := svc.Settle(context.Background(), 99, "admin", "")
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestSettlePersistenceFailure(t *testing.T) {
	line := overpaidLine(t, 50000, 60000)

	store := new(mockStore)
	store.On("GetLine", mock.Anything, int64(5)).Return(line, nil)
	store.On("PersistSettlement", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := NewService(store, zap.NewNop())
	_, err := svc.Settle(context.Background(), 5, "admin", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ledger.ErrNothingToSettle)
}
