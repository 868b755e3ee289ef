package distribution

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/ledger"
)

// Store is the slice of the ledger the engine needs: a snapshot of a
// player's outstanding lines and per-line persistence. Each PersistPayment
// is its own transaction boundary; the engine never asks for a cross-match
// transaction, so a failure partway through leaves earlier matches applied.
type Store interface {
	OutstandingLines(ctx context.Context, player identity.PlayerRef) ([]ledger.OutstandingLine, error)
	PersistPayment(ctx context.Context, line *ledger.ParticipantLine, tx *ledger.Transaction) error
}

// PartialError reports a distribution that stopped at a match whose
// persistence failed. Matches before it are applied and stand; the caller
// must not blindly retry the whole call.
type PartialError struct {
	MatchID int64
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("distribution stopped at match %d: %v", e.MatchID, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Service applies one payment across a player's outstanding obligations,
// oldest match first.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new distribution service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Distribute greedily allocates amount against the player's dues in match
// date order. Any leftover after all dues are cleared is parked as credit
// on the most recently touched line; if the player has no dues at all the
// whole amount comes back unapplied and Unattributable, because the engine
// does not invent a destination for money with no matching obligation.
//
// The call is not idempotent by amount: two identical legitimate payments
// are both valid. Deduplication of resubmitted evidence happens upstream.
func (s *Service) Distribute(ctx context.Context, player identity.PlayerRef, amount ledger.Money, meta ledger.TransactionMeta) (*Result, error) {
	if amount <= 0 {
		return nil, ledger.ErrNonPositiveAmount
	}

	candidates, err := s.store.OutstandingLines(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding lines: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].MatchDate.Equal(candidates[j].MatchDate) {
			return candidates[i].MatchDate.Before(candidates[j].MatchDate)
		}
		return candidates[i].MatchCreatedAt.Before(candidates[j].MatchCreatedAt)
	})

	result := &Result{RemainingUnapplied: amount}
	remaining := amount
	var lastTouched *ledger.OutstandingLine

	for i := range candidates {
		if remaining == 0 {
			break
		}
		c := &candidates[i]
		allocate := remaining
		if c.Line.DueAmount < allocate {
			allocate = c.Line.DueAmount
		}
		if allocate <= 0 {
			continue
		}

		tx, err := ledger.ApplyPayment(c.Line, allocate, meta)
		if err != nil {
			return result, fmt.Errorf("failed to apply %d to match %d: %w", allocate, c.MatchID, err)
		}
		if err := s.store.PersistPayment(ctx, c.Line, tx); err != nil {
			s.logger.Error("distribution halted on persistence failure",
				zap.Int64("match_id", c.MatchID),
				zap.Int64("line_id", c.Line.ID),
				zap.Error(err))
			return result, &PartialError{MatchID: c.MatchID, Err: err}
		}

		result.Distributions = append(result.Distributions, Entry{
			MatchID:       c.MatchID,
			LineID:        c.Line.ID,
			AmountApplied: allocate,
		})
		result.TotalApplied += allocate
		result.RemainingUnapplied -= allocate
		remaining -= allocate
		lastTouched = c
	}

	// Leftover after every due is cleared becomes credit on the last line
	// we touched, where the settlement engine can later refund it.
	if remaining > 0 && lastTouched != nil {
		tx, err := ledger.ApplyPayment(lastTouched.Line, remaining, meta)
		if err != nil {
			return result, fmt.Errorf("failed to credit %d to match %d: %w", remaining, lastTouched.MatchID, err)
		}
		if err := s.store.PersistPayment(ctx, lastTouched.Line, tx); err != nil {
			s.logger.Error("crediting leftover failed",
				zap.Int64("match_id", lastTouched.MatchID),
				zap.Int64("line_id", lastTouched.Line.ID),
				zap.Error(err))
			return result, &PartialError{MatchID: lastTouched.MatchID, Err: err}
		}

		last := &result.Distributions[len(result.Distributions)-1]
		last.AmountApplied += remaining
		result.TotalApplied += remaining
		result.RemainingUnapplied -= remaining
		result.Credited = remaining
		remaining = 0
	}

	if lastTouched == nil {
		result.Unattributable = true
		s.logger.Warn("payment with no matching dues",
			zap.String("phone", player.Phone),
			zap.Int64("amount", int64(amount)))
		return result, nil
	}

	s.logger.Info("payment distributed",
		zap.String("phone", player.Phone),
		zap.Int64("amount", int64(amount)),
		zap.Int("matches", len(result.Distributions)),
		zap.Int64("credited", int64(result.Credited)))
	return result, nil
}
