package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/identity"
)

// Common errors
var (
	ErrObligationNotFound = errors.New("match obligation not found")
	ErrLineNotFound       = errors.New("participant line not found")
	ErrNoParticipants     = errors.New("at least one participant is required")
	ErrLineHasPayments    = errors.New("line has recorded payments and cannot be removed")
)

// Service handles match obligation administration: fee setup, membership
// changes and the mark-paid/mark-unpaid overrides.
type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService creates a new ledger service.
func NewService(repo *Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ParticipantInput describes one player joining a match's fee split.
type ParticipantInput struct {
	PlayerID    *int64
	Phone       string
	Name        string
	FixedAmount *Money
}

// CreateObligation sets up the fee ledger for one match and computes the
// initial split.
func (s *Service) CreateObligation(ctx context.Context, title string, matchDate time.Time, totalAmount Money, participants []ParticipantInput) (*MatchObligation, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if totalAmount < 0 {
		return nil, ErrNonPositiveAmount
	}

	o := &MatchObligation{
		Title:       title,
		MatchDate:   matchDate,
		TotalAmount: totalAmount,
		Status:      ObligationStatusPending,
	}
	for _, p := range participants {
		o.Lines = append(o.Lines, &ParticipantLine{
			PlayerID:    p.PlayerID,
			PlayerPhone: identity.NormalizePhone(p.Phone),
			PlayerName:  p.Name,
			FixedAmount: p.FixedAmount,
		})
	}

	if err := RecomputeSplits(o); err != nil {
		return nil, err
	}
	if err := s.repo.CreateObligation(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("match obligation created",
		zap.Int64("match_id", o.ID),
		zap.Int64("total_amount", int64(o.TotalAmount)),
		zap.Int("participants", len(o.Lines)))
	return o, nil
}

// GetObligation loads an obligation with a freshly derived status.
func (s *Service) GetObligation(ctx context.Context, id int64) (*MatchObligation, error) {
	o, err := s.repo.GetObligation(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrObligationNotFound
	}
	RefreshObligationStatus(o)
	return o, nil
}

// AddParticipant adds a line to the match and rebalances the split.
func (s *Service) AddParticipant(ctx context.Context, matchID int64, p ParticipantInput) (*MatchObligation, error) {
	o, err := s.GetObligation(ctx, matchID)
	if err != nil {
		return nil, err
	}

	o.Lines = append(o.Lines, &ParticipantLine{
		PlayerID:    p.PlayerID,
		PlayerPhone: identity.NormalizePhone(p.Phone),
		PlayerName:  p.Name,
		FixedAmount: p.FixedAmount,
	})

	if err := RecomputeSplits(o); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceLines(ctx, o, nil); err != nil {
		return nil, err
	}
	return o, nil
}

// RemoveParticipant drops a line that has no recorded payments and
// rebalances the remaining lines.
func (s *Service) RemoveParticipant(ctx context.Context, matchID, lineID int64) (*MatchObligation, error) {
	o, err := s.GetObligation(ctx, matchID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, l := range o.Lines {
		if l.ID == lineID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrLineNotFound
	}
	if o.Lines[idx].PaidTotal > 0 {
		return nil, ErrLineHasPayments
	}

	o.Lines = append(o.Lines[:idx], o.Lines[idx+1:]...)
	if err := RecomputeSplits(o); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceLines(ctx, o, []int64{lineID}); err != nil {
		return nil, err
	}
	return o, nil
}

// SetFixedAmount overrides one line's contribution (nil clears the
// override, 0 marks a free player) and rebalances the rest.
func (s *Service) SetFixedAmount(ctx context.Context, matchID, lineID int64, fixed *Money) (*MatchObligation, error) {
	if fixed != nil && *fixed < 0 {
		return nil, ErrNonPositiveAmount
	}

	o, err := s.GetObligation(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var target *ParticipantLine
	for _, l := range o.Lines {
		if l.ID == lineID {
			target = l
			break
		}
	}
	if target == nil {
		return nil, ErrLineNotFound
	}

	target.FixedAmount = fixed
	if err := RecomputeSplits(o); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceLines(ctx, o, nil); err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid force-settles a line: existing transactions are voided and one
// synthetic adjustment for the effective amount is appended.
func (s *Service) MarkPaid(ctx context.Context, lineID int64, note string) (*ParticipantLine, error) {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	voidsBefore := len(line.Voids)
	tx := ForcePaid(line, note)
	if err := s.repo.PersistOverride(ctx, line, line.Voids[voidsBefore:], tx); err != nil {
		return nil, fmt.Errorf("failed to persist mark-paid: %w", err)
	}

	s.logger.Info("line force-marked paid", zap.Int64("line_id", lineID))
	return line, nil
}

// MarkUnpaid voids every live transaction on a line, returning it to
// PENDING while keeping the history for audit.
func (s *Service) MarkUnpaid(ctx context.Context, lineID int64, reason string) (*ParticipantLine, error) {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	voidsBefore := len(line.Voids)
	VoidAllTransactions(line, reason)
	if err := s.repo.PersistOverride(ctx, line, line.Voids[voidsBefore:], nil); err != nil {
		return nil, fmt.Errorf("failed to persist mark-unpaid: %w", err)
	}

	s.logger.Info("line marked unpaid", zap.Int64("line_id", lineID), zap.String("reason", reason))
	return line, nil
}
