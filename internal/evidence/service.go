package evidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/distribution"
	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/ledger"
)

// Common errors
var (
	ErrEvidenceNotFound  = errors.New("evidence not found")
	ErrDuplicateMessage  = errors.New("message id already ingested")
	ErrDuplicateEvidence = errors.New("duplicate evidence is terminal and can never be applied")
	ErrAlreadyResolved   = errors.New("evidence already resolved")
	ErrUnknownAction     = errors.New("unknown review action")
)

// ReviewAction is what an admin can do with pending evidence.
type ReviewAction string

const (
	ActionApprove ReviewAction = "APPROVE"
	ActionReject  ReviewAction = "REJECT"
)

// Repository persists evidence records. Insert must fail with
// ErrDuplicateMessage when the message id already exists; the unique
// constraint is what closes the double-webhook-delivery race.
type Repository interface {
	Insert(ctx context.Context, ev *PaymentEvidence) error
	Update(ctx context.Context, ev *PaymentEvidence) error
	GetByID(ctx context.Context, id string) (*PaymentEvidence, error)
	GetByMessageID(ctx context.Context, messageID string) (*PaymentEvidence, error)
	ExistsByImageHash(ctx context.Context, hash string) (bool, error)
	ListPending(ctx context.Context) ([]*PaymentEvidence, error)
}

// Distributor applies a confirmed amount against the player's dues.
type Distributor interface {
	Distribute(ctx context.Context, player identity.PlayerRef, amount ledger.Money, meta ledger.TransactionMeta) (*distribution.Result, error)
}

// IngestInput is one inbound screenshot submission.
type IngestInput struct {
	MessageID   string
	PlayerID    *int64
	PlayerPhone string
	BlobRef     string
	ContentType string
	MatchDate   *time.Time // most recent match the player is expected to pay for
	Extraction  Extraction
}

// ReviewInput is an admin decision on pending evidence.
type ReviewInput struct {
	Action         ReviewAction
	OverrideAmount *ledger.Money
	ReviewedBy     string
	Notes          string
}

// Service runs the evidence state machine: ingest with idempotency and
// duplicate detection, auto-apply when nothing is suspicious, and admin
// review for everything else.
type Service struct {
	repo        Repository
	distributor Distributor
	threshold   float64 // minimum extraction confidence for auto-apply
	logger      *zap.Logger
}

// NewService creates a new evidence service.
func NewService(repo Repository, distributor Distributor, confidenceThreshold float64, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		distributor: distributor,
		threshold:   confidenceThreshold,
		logger:      logger,
	}
}

// Ingest processes one submitted screenshot. Resubmitting the same message
// id is a no-op returning the existing record; resubmitting the same image
// content creates a terminal DUPLICATE record that is never distributed.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*PaymentEvidence, error) {
	if existing, err := s.repo.GetByMessageID(ctx, in.MessageID); err != nil {
		return nil, fmt.Errorf("failed to check message id: %w", err)
	} else if existing != nil {
		return existing, nil
	}

	ev := &PaymentEvidence{
		ID:          uuid.NewString(),
		MessageID:   in.MessageID,
		PlayerID:    in.PlayerID,
		PlayerPhone: identity.NormalizePhone(in.PlayerPhone),
		BlobRef:     in.BlobRef,
		ContentType: in.ContentType,
		Extraction:  in.Extraction,
		Status:      StatusPendingReview,
		CreatedAt:   time.Now().UTC(),
	}

	// Duplicate screenshot content is terminal before anything else runs,
	// no matter how confident the extraction was.
	if in.Extraction.ImageHash != "" {
		seen, err := s.repo.ExistsByImageHash(ctx, in.Extraction.ImageHash)
		if err != nil {
			return nil, fmt.Errorf("failed to check image hash: %w", err)
		}
		if seen {
			ev.Status = StatusDuplicate
			reason := ReasonDuplicate
			ev.ReviewReason = &reason
		}
	}

	if ev.Status != StatusDuplicate {
		if reason := routeForReview(in.Extraction, in.MatchDate, s.threshold); reason != nil {
			ev.ReviewReason = reason
		}
	}

	// Insert before any ledger mutation. A concurrent delivery of the same
	// message id loses the unique-constraint race and gets the winner's
	// record back.
	if err := s.repo.Insert(ctx, ev); err != nil {
		if errors.Is(err, ErrDuplicateMessage) {
			return s.repo.GetByMessageID(ctx, in.MessageID)
		}
		return nil, fmt.Errorf("failed to store evidence: %w", err)
	}

	if ev.Status == StatusDuplicate || ev.ReviewReason != nil {
		s.logger.Info("evidence routed for review",
			zap.String("evidence_id", ev.ID),
			zap.String("status", string(ev.Status)),
			zap.Any("reason", ev.ReviewReason))
		return ev, nil
	}

	return s.apply(ctx, ev, in.Extraction.Amount, StatusAutoApplied)
}

// Review resolves pending evidence. Approve distributes the extracted (or
// admin-overridden) amount; reject is terminal with no ledger effect.
func (s *Service) Review(ctx context.Context, evidenceID string, in ReviewInput) (*PaymentEvidence, error) {
	ev, err := s.repo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence: %w", err)
	}
	if ev == nil {
		return nil, ErrEvidenceNotFound
	}

	if ev.Status == StatusDuplicate {
		return nil, ErrDuplicateEvidence
	}
	if ev.Status != StatusPendingReview {
		return nil, ErrAlreadyResolved
	}

	switch in.Action {
	case ActionApprove:
		amount := ev.Extraction.Amount
		if in.OverrideAmount != nil {
			amount = *in.OverrideAmount
		}
		if amount <= 0 {
			return nil, ledger.ErrNonPositiveAmount
		}
		now := time.Now().UTC()
		ev.ReviewedBy = in.ReviewedBy
		ev.ReviewNotes = in.Notes
		ev.ReviewedAt = &now
		return s.apply(ctx, ev, amount, StatusApproved)

	case ActionReject:
		now := time.Now().UTC()
		ev.Status = StatusRejected
		ev.ReviewedBy = in.ReviewedBy
		ev.ReviewNotes = in.Notes
		ev.ReviewedAt = &now
		// Clear any tentative linkage; a rejection never leaves stray
		// references to lines it did not pay.
		ev.Distributions = nil
		ev.TotalApplied = 0
		ev.RemainingUnapplied = 0
		if err := s.repo.Update(ctx, ev); err != nil {
			return nil, fmt.Errorf("failed to store rejection: %w", err)
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, in.Action)
	}
}

// Pending lists the admin review queue.
func (s *Service) Pending(ctx context.Context) ([]*PaymentEvidence, error) {
	return s.repo.ListPending(ctx)
}

// GetByID returns one evidence record.
func (s *Service) GetByID(ctx context.Context, id string) (*PaymentEvidence, error) {
	ev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEvidenceNotFound
	}
	return ev, nil
}

// apply runs the distribution engine for a confirmed amount and records
// the outcome on the evidence. A distribution that applied nothing, or
// only part of the amount, flips the evidence back to the review queue
// instead of pretending the money landed.
func (s *Service) apply(ctx context.Context, ev *PaymentEvidence, amount ledger.Money, onSuccess Status) (*PaymentEvidence, error) {
	player := identity.PlayerRef{PlayerID: ev.PlayerID, Phone: ev.PlayerPhone}
	meta := ledger.TransactionMeta{
		Method:     paymentMethod(ev.Extraction),
		Note:       "payment screenshot",
		EvidenceID: &ev.ID,
	}

	result, derr := s.distributor.Distribute(ctx, player, amount, meta)
	if result != nil {
		ev.Distributions = result.Distributions
		ev.TotalApplied = result.TotalApplied
		ev.RemainingUnapplied = result.RemainingUnapplied
	}

	switch {
	case derr != nil:
		// Funds may be partially applied; surface it, keep the record for
		// the admin, and never auto-retry.
		reason := ReasonPartialDistribution
		ev.Status = StatusPendingReview
		ev.ReviewReason = &reason
	case result.Unattributable:
		reason := ReasonNoOutstandingDues
		ev.Status = StatusPendingReview
		ev.ReviewReason = &reason
	default:
		ev.Status = onSuccess
		ev.ReviewReason = nil
	}

	if err := s.repo.Update(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to store distribution outcome: %w", err)
	}
	if derr != nil {
		return ev, derr
	}

	s.logger.Info("evidence applied",
		zap.String("evidence_id", ev.ID),
		zap.String("status", string(ev.Status)),
		zap.Int64("total_applied", int64(ev.TotalApplied)),
		zap.Int64("remaining_unapplied", int64(ev.RemainingUnapplied)))
	return ev, nil
}

// routeForReview computes the ingestion routing rule. Order matters: the
// strongest signal wins when several fire.
func routeForReview(x Extraction, matchDate *time.Time, threshold float64) *ReviewReason {
	if !x.IsPaymentScreenshot {
		r := ReasonNotPaymentScreenshot
		return &r
	}
	if x.Confidence < threshold {
		r := ReasonLowConfidence
		return &r
	}
	if matchDate != nil && x.ClaimedDate != "" {
		if claimed, err := time.Parse("2006-01-02", x.ClaimedDate); err == nil {
			// A screenshot dated before the match is likely a reused old
			// payment.
			if claimed.Before(matchDate.Truncate(24 * time.Hour)) {
				r := ReasonDateMismatch
				return &r
			}
		}
	}
	return nil
}

func paymentMethod(x Extraction) string {
	if x.PaymentMethod != "" {
		return x.PaymentMethod
	}
	return "UPI"
}
