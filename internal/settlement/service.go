package settlement

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/ledger"
)

// Common errors
var (
	ErrLineNotFound = errors.New("participant line not found")
)

// Store loads and persists single lines; settlement never spans matches.
type Store interface {
	GetLine(ctx context.Context, lineID int64) (*ledger.ParticipantLine, error)
	PersistSettlement(ctx context.Context, line *ledger.ParticipantLine, ev *ledger.SettlementEvent) error
}

// Receipt summarizes a completed settlement for the caller to relay to
// the player.
type Receipt struct {
	LineID        int64             `json:"participant_line_id"`
	MatchID       int64             `json:"match_id"`
	AmountSettled ledger.Money      `json:"amount_settled"`
	NewStatus     ledger.LineStatus `json:"new_status"`
}

// Service resolves overpaid lines by converting credit into a tracked
// settlement event. The original payment evidence is never touched.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new settlement service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Settle converts the line's outstanding credit into a SettlementEvent.
// Fails with ledger.ErrNothingToSettle when the line is not overpaid.
func (s *Service) Settle(ctx context.Context, lineID int64, settledBy, note string) (*Receipt, error) {
	line, err := s.store.GetLine(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line: %w", err)
	}
	if line == nil {
		return nil, ErrLineNotFound
	}

	ev, err := ledger.ApplySettlement(line, settledBy, note)
	if err != nil {
		return nil, err
	}

	if err := s.store.PersistSettlement(ctx, line, ev); err != nil {
		return nil, fmt.Errorf("failed to persist settlement: %w", err)
	}

	s.logger.Info("overpayment settled",
		zap.Int64("line_id", line.ID),
		zap.Int64("match_id", line.MatchID),
		zap.Int64("amount", int64(ev.Amount)),
		zap.String("settled_by", settledBy))

	return &Receipt{
		LineID:        line.ID,
		MatchID:       line.MatchID,
		AmountSettled: ev.Amount,
		NewStatus:     line.Status,
	}, nil
}
