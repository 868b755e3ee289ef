package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/distribution"
	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/ledger"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, ev *PaymentEvidence) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockRepo) Update(ctx context.Context, ev *PaymentEvidence) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*PaymentEvidence, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentEvidence), args.Error(1)
}

func (m *mockRepo) GetByMessageID(ctx context.Context, messageID string) (*PaymentEvidence, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentEvidence), args.Error(1)
}

func (m *mockRepo) ExistsByImageHash(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListPending(ctx context.Context) ([]*PaymentEvidence, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*PaymentEvidence), args.Error(1)
}

type mockDistributor struct {
	mock.Mock
}

func (m *mockDistributor) Distribute(ctx context.Context, player identity.PlayerRef, amount ledger.Money, meta ledger.TransactionMeta) (*distribution.Result, error) {
	args := m.Called(ctx, player, amount, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*distribution.Result), args.Error(1)
}

func goodExtraction() Extraction {
	return Extraction{
		Amount:              50000,
		Confidence:          0.93,
		IsPaymentScreenshot: true,
		Provider:            "google_ai_studio",
		Model:               "gemini-2.0-flash",
		PayerName:           "Rohit S",
		TransactionID:       "UPI123456789",
		ClaimedDate:         "2025-06-02",
		PaymentMethod:       "UPI",
		ImageHash:           "abc123",
	}
}

func ingestInput() IngestInput {
	matchDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return IngestInput{
		MessageID:   "wamid.001",
		PlayerPhone: "+91 98765 43210",
		BlobRef:     "blobs/2025/06/abc.jpg",
		ContentType: "image/jpeg",
		MatchDate:   &matchDate,
		Extraction:  goodExtraction(),
	}
}

func appliedResult(applied ledger.Money) *distribution.Result {
	return &distribution.Result{
		Distributions: []distribution.Entry{{MatchID: 1, LineID: 1, AmountApplied: applied}},
		TotalApplied:  applied,
	}
}

func newTestService(repo *mockRepo, dist *mockDistributor) *Service {
	return NewService(repo, dist, 0.7, zap.NewNop())
}

func TestIngestAutoApplies(t *testing.T) {
	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByMessageID", mock.Anything, "wamid.001").Return(nil, nil)
	repo.On("ExistsByImageHash", mock.Anything, "abc123").Return(false, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	dist.On("Distribute", mock.Anything, mock.Anything, ledger.Money(50000), mock.Anything).
		Return(appliedResult(50000), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	ev, err := newTestService(repo, dist).Ingest(context.Background(), ingestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusAutoApplied, ev.Status)
	assert.Nil(t, ev.ReviewReason)
	assert.Equal(t, ledger.Money(50000), ev.TotalApplied)
	assert.Equal(t, "919876543210", ev.PlayerPhone)
	require.Len(t, ev.Distributions, 1)
	repo.AssertExpectations(t)
	dist.AssertExpectations(t)
}

func TestIngestSameMessageIDIsNoOp(t *testing.T) {
	existing := &PaymentEvidence{ID: "e1", MessageID: "wamid.001", Status: StatusAutoApplied}

	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByMessageID", mock.Anything, "wamid.001").Return(existing, nil)

	ev, err := newTestService(repo, dist).Ingest(context.Background(), ingestInput())
	require.NoError(t, err)

	assert.Same(t, existing, ev)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	dist.AssertNotCalled(t, "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestInsertRaceReturnsWinner(t *testing.T) {
	winner := &PaymentEvidence{ID: "e1", MessageID: "wamid.001", Status: StatusAutoApplied}

	repo := new(mockRepo)
	dist := new(mockDistributor)
	// First existence check misses; the concurrent delivery wins the
	// unique-constraint race on insert.
	repo.On("GetByMessageID", mock.Anything, "wamid.001").Return(nil, nil).Once()
	repo.On("ExistsByImageHash", mock.Anything, "abc123").Return(false, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(ErrDuplicateMessage)
	repo.On("GetByMessageID", mock.Anything, "wamid.001").Return(winner, nil).Once()

	ev, err := newTestService(repo, dist).Ingest(context.Background(), ingestInput())
	require.NoError(t, err)

	assert.Same(t, winner, ev)
	dist.AssertNotCalled(t, "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestDuplicateImageHashIsTerminal(t *testing.T) {
	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByMessageID", mock.Anything, "wamid.001").Return(nil, nil)
	repo.On("ExistsByImageHash", mock.Anything, "abc123").Return(true, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	ev, err := newTestService(repo, dist).Ingest(context.Background(), ingestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusDuplicate, ev.Status)
	require.NotNil(t, ev.ReviewReason)
	assert.Equal(t, ReasonDuplicate, *ev.ReviewReason)
	assert.Empty(t, ev.Distributions)
	dist.AssertNotCalled(t, "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Admin cannot approve a duplicate, ever.
	repo.On("GetByID", mock.Anything, ev.ID).Return(ev, nil)
	_, err = newTestService(repo, dist).Review(context.Background(), ev.ID, ReviewInput{Action: ActionApprove})
	assert.ErrorIs(t, err, ErrDuplicateEvidence)
}

func TestIngestRoutingRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IngestInput)
		want   ReviewReason
	}{
		{
			"low confidence",
			func(in *IngestInput) { in.Extraction.Confidence = 0.42 },
			ReasonLowConfidence,
		},
		{
			"not a payment screenshot",
			func(in *IngestInput) { in.Extraction.IsPaymentScreenshot = false },
			ReasonNotPaymentScreenshot,
		},
		{
			"claimed date before match date",
			func(in *IngestInput) { in.Extraction.ClaimedDate = "2025-05-20" },
			ReasonDateMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			dist := new(mockDistributor)
			repo.On("GetByMessageID", mock.Anything, mock.Anything).Return(nil, nil)
			repo.On("ExistsByImageHash", mock.Anything, mock.Anything).Return(false, nil)
			repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

			in := ingestInput()
			tt.mutate(&in)

			ev, err := newTestService(repo, dist).Ingest(context.Background(), in)
			require.NoError(t, err)

			assert.Equal(t, StatusPendingReview, ev.Status)
			require.NotNil(t, ev.ReviewReason)
			assert.Equal(t, tt.want, *ev.ReviewReason)
			dist.AssertNotCalled(t, "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestIngestUnattributableGoesToReview(t *testing.T) {
	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByMessageID", mock.Anything, "wamid.001").Return(nil, nil)
	repo.On("ExistsByImageHash", mock.Anything, "abc123").Return(false, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	dist.On("Distribute", mock.Anything, mock.Anything, ledger.Money(50000), mock.Anything).
		Return(&distribution.Result{RemainingUnapplied: 50000, Unattributable: true}, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	ev, err := newTestService(repo, dist).Ingest(context.Background(), ingestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPendingReview, ev.Status)
	require.NotNil(t, ev.ReviewReason)
	assert.Equal(t, ReasonNoOutstandingDues, *ev.ReviewReason)
	assert.Equal(t, ledger.Money(50000), ev.RemainingUnapplied)
}

func TestReviewApproveWithOverride(t *testing.T) {
	reason := ReasonLowConfidence
	pending := &PaymentEvidence{
		ID: "e1", MessageID: "wamid.001", PlayerPhone: "919876543210",
		Extraction: goodExtraction(), Status: StatusPendingReview, ReviewReason: &reason,
	}

	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByID", mock.Anything, "e1").Return(pending, nil)
	dist.On("Distribute", mock.Anything, mock.Anything, ledger.Money(45000), mock.Anything).
		Return(appliedResult(45000), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	override := ledger.Money(45000)
	ev, err := newTestService(repo, dist).Review(context.Background(), "e1", ReviewInput{
		Action:         ActionApprove,
		OverrideAmount: &override,
		ReviewedBy:     "admin-asha",
		Notes:          "amount misread, corrected from screenshot",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, ev.Status)
	assert.Nil(t, ev.ReviewReason)
	assert.Equal(t, "admin-asha", ev.ReviewedBy)
	assert.NotNil(t, ev.ReviewedAt)
	assert.Equal(t, ledger.Money(45000), ev.TotalApplied)
	dist.AssertExpectations(t)
}

func TestReviewApproveRejectsNonPositiveOverride(t *testing.T) {
	pending := &PaymentEvidence{ID: "e1", Extraction: goodExtraction(), Status: StatusPendingReview}

	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByID", mock.Anything, "e1").Return(pending, nil)

	zero := ledger.Money(0)
	_, err := newTestService(repo, dist).Review(context.Background(), "e1", ReviewInput{
		Action:         ActionApprove,
		OverrideAmount: &zero,
	})
	assert.ErrorIs(t, err, ledger.ErrNonPositiveAmount)
	dist.AssertNotCalled(t, "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewRejectIsTerminalWithNoLedgerEffect(t *testing.T) {
	reason := ReasonDateMismatch
	pending := &PaymentEvidence{
		ID: "e1", Extraction: goodExtraction(), Status: StatusPendingReview,
		ReviewReason: &reason,
		// Tentative linkage from an earlier partial run must be cleared.
		Distributions: []distribution.Entry{{MatchID: 1, LineID: 1, AmountApplied: 100}},
		TotalApplied:  100,
	}

	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByID", mock.Anything, "e1").Return(pending, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	ev, err := newTestService(repo, dist).Review(context.Background(), "e1", ReviewInput{
		Action:     ActionReject,
		ReviewedBy: "admin-asha",
		Notes:      "old screenshot resent",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, ev.Status)
	assert.Empty(t, ev.Distributions)
	assert.Equal(t, ledger.Money(0), ev.TotalApplied)
	dist.AssertNotCalled(t, "Distribute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Terminal: a second decision is refused.
	_, err = newTestService(repo, dist).Review(context.Background(), "e1", ReviewInput{Action: ActionApprove})
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestReviewUnknownAction(t *testing.T) {
	pending := &PaymentEvidence{ID: "e1", Status: StatusPendingReview}

	repo := new(mockRepo)
	repo.On("GetByID", mock.Anything, "e1").Return(pending, nil)

	_, err := newTestService(repo, new(mockDistributor)).Review(context.Background(), "e1", ReviewInput{Action: "ESCALATE"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestReviewNotFound(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, nil)

	_, err := newTestService(repo, new(mockDistributor)).Review(context.Background(), "missing", ReviewInput{Action: ActionReject})
	assert.ErrorIs(t, err, ErrEvidenceNotFound)
}

func TestReviewPartialDistributionFlagsEvidence(t *testing.T) {
	pending := &PaymentEvidence{ID: "e1", PlayerPhone: "919876543210", Extraction: goodExtraction(), Status: StatusPendingReview}

	repo := new(mockRepo)
	dist := new(mockDistributor)
	repo.On("GetByID", mock.Anything, "e1").Return(pending, nil)
	partial := &distribution.Result{
		Distributions:      []distribution.Entry{{MatchID: 1, LineID: 1, AmountApplied: 20000}},
		TotalApplied:       20000,
		RemainingUnapplied: 30000,
	}
	dist.On("Distribute", mock.Anything, mock.Anything, ledger.Money(50000), mock.Anything).
		Return(partial, &distribution.PartialError{MatchID: 2})
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	ev, err := newTestService(repo, dist).Review(context.Background(), "e1", ReviewInput{Action: ActionApprove})

	var pe *distribution.PartialError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StatusPendingReview, ev.Status)
	require.NotNil(t, ev.ReviewReason)
	assert.Equal(t, ReasonPartialDistribution, *ev.ReviewReason)
	assert.Equal(t, ledger.Money(20000), ev.TotalApplied)
	assert.Equal(t, ledger.Money(30000), ev.RemainingUnapplied)
}
