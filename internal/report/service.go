// Package report serves per-player summaries and timelines over the pure
// calculators in paycalc.
package report

import (
	"context"

	"go.uber.org/zap"

	"github.com/stumpedhq/clubpay/internal/identity"
	"github.com/stumpedhq/clubpay/internal/ledger"
	"github.com/stumpedhq/clubpay/internal/paycalc"
)

// Store loads a player's lines with their match context.
type Store interface {
	PlayerLines(ctx context.Context, player identity.PlayerRef) ([]ledger.OutstandingLine, error)
}

// Service produces player-facing reports.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new report service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Summary aggregates a player's position across all their matches.
func (s *Service) Summary(ctx context.Context, player identity.PlayerRef) (paycalc.PlayerSummary, error) {
	snapshots, err := s.snapshots(ctx, player)
	if err != nil {
		return paycalc.PlayerSummary{}, err
	}
	return paycalc.Summarize(snapshots), nil
}

// Timeline returns a player's chronological payment history across matches.
func (s *Service) Timeline(ctx context.Context, player identity.PlayerRef) ([]paycalc.TimelineEntry, error) {
	snapshots, err := s.snapshots(ctx, player)
	if err != nil {
		return nil, err
	}
	return paycalc.Timeline(snapshots), nil
}

func (s *Service) snapshots(ctx context.Context, player identity.PlayerRef) ([]paycalc.LineSnapshot, error) {
	lines, err := s.store.PlayerLines(ctx, player)
	if err != nil {
		return nil, err
	}
	snapshots := make([]paycalc.LineSnapshot, len(lines))
	for i, l := range lines {
		snapshots[i] = paycalc.LineSnapshot{
			MatchID:    l.MatchID,
			MatchTitle: l.MatchTitle,
			MatchDate:  l.MatchDate,
			Line:       l.Line,
		}
	}
	return snapshots, nil
}
