// Package paycalc computes per-player payment summaries and transaction
// timelines from ledger data. Everything here is pure: callers pass line
// snapshots in, nothing touches storage, and the same input always yields
// the same output, so reporting can run against live or archived data.
package paycalc

import (
	"sort"
	"time"

	"github.com/stumpedhq/clubpay/internal/ledger"
)

// LineSnapshot is the slice of one line a summary needs. Repositories and
// archives both know how to produce it.
type LineSnapshot struct {
	MatchID    int64
	MatchTitle string
	MatchDate  time.Time
	Line       *ledger.ParticipantLine
}

// PlayerSummary aggregates one player's position across all their matches.
type PlayerSummary struct {
	TotalExpected   ledger.Money `json:"total_expected"`
	TotalPaid       ledger.Money `json:"total_paid"`
	TotalDue        ledger.Money `json:"total_due"`
	TotalCredit     ledger.Money `json:"total_credit"`
	TotalSettled    ledger.Money `json:"total_settled"`
	NetContribution ledger.Money `json:"net_contribution"`
	MatchesPlayed   int          `json:"matches_played"`
	MatchesFree     int          `json:"matches_free"`
}

// Summarize folds a player's line snapshots into a PlayerSummary.
func Summarize(snapshots []LineSnapshot) PlayerSummary {
	var s PlayerSummary
	for _, snap := range snapshots {
		l := snap.Line
		s.TotalExpected += l.EffectiveAmount()
		s.TotalPaid += l.PaidTotal
		s.TotalDue += l.DueAmount
		s.TotalCredit += l.CreditAmount
		s.TotalSettled += l.SettledTotal
		s.MatchesPlayed++
		if l.EffectiveAmount() == 0 {
			s.MatchesFree++
		}
	}
	s.NetContribution = s.TotalPaid - s.TotalSettled
	return s
}

// EntryType classifies a timeline entry. Settlements are identified by
// their own event type, never by inspecting note text.
type EntryType string

const (
	EntryTypePayment    EntryType = "PAYMENT"
	EntryTypeSettlement EntryType = "SETTLEMENT"
	EntryTypeAdjusted   EntryType = "ADJUSTED"
	EntryTypeInvalid    EntryType = "INVALID"
)

// TimelineEntry is one event in a player's per-match history.
type TimelineEntry struct {
	MatchID    int64        `json:"match_id"`
	MatchTitle string       `json:"match_title,omitempty"`
	Type       EntryType    `json:"type"`
	Amount     ledger.Money `json:"amount"`
	Method     string       `json:"method,omitempty"`
	Note       string       `json:"note,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Timeline merges a player's transactions and settlement events across
// matches into one chronological list. Voided transactions appear as
// INVALID entries so the audit trail stays visible.
func Timeline(snapshots []LineSnapshot) []TimelineEntry {
	var entries []TimelineEntry
	for _, snap := range snapshots {
		l := snap.Line
		for _, tx := range l.Transactions {
			entries = append(entries, TimelineEntry{
				MatchID:    snap.MatchID,
				MatchTitle: snap.MatchTitle,
				Type:       classify(l, tx),
				Amount:     tx.Amount,
				Method:     tx.Method,
				Note:       tx.Note,
				OccurredAt: tx.OccurredAt,
			})
		}
		for _, ev := range l.Settlements {
			entries = append(entries, TimelineEntry{
				MatchID:    snap.MatchID,
				MatchTitle: snap.MatchTitle,
				Type:       EntryTypeSettlement,
				Amount:     ev.Amount,
				Note:       ev.Note,
				OccurredAt: ev.OccurredAt,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.Before(entries[j].OccurredAt)
	})
	return entries
}

func classify(l *ledger.ParticipantLine, tx ledger.Transaction) EntryType {
	if l.IsVoided(tx.ID) {
		return EntryTypeInvalid
	}
	if tx.Kind == ledger.TransactionKindAdjustment {
		return EntryTypeAdjusted
	}
	return EntryTypePayment
}
