package ledger

import "time"

// Money is an amount in the currency's minor unit (paise). All ledger
// arithmetic is integral so that splits and distributions stay exact.
type Money int64

// LineStatus represents the payment state of one participant's line.
type LineStatus string

const (
	LineStatusPending  LineStatus = "PENDING"
	LineStatusPartial  LineStatus = "PARTIAL"
	LineStatusPaid     LineStatus = "PAID"
	LineStatusOverpaid LineStatus = "OVERPAID"
)

// ObligationStatus represents the collection state of a whole match.
type ObligationStatus string

const (
	ObligationStatusPending  ObligationStatus = "PENDING"
	ObligationStatusPartial  ObligationStatus = "PARTIAL"
	ObligationStatusComplete ObligationStatus = "COMPLETE"
)

// TransactionKind distinguishes real payments from synthetic adjustments
// appended by admin overrides (force-paid).
type TransactionKind string

const (
	TransactionKindPayment    TransactionKind = "PAYMENT"
	TransactionKindAdjustment TransactionKind = "ADJUSTMENT"
)

// Transaction is one append-only payment event against a line. A
// transaction is immutable once written; invalidation is recorded as a
// separate TransactionVoid marker, never by flipping a field here.
type Transaction struct {
	ID         string          `json:"id"`
	LineID     int64           `json:"line_id"`
	Amount     Money           `json:"amount"`
	Kind       TransactionKind `json:"kind"`
	Method     string          `json:"method"` // UPI, CASH, NEFT, ...
	Note       string          `json:"note,omitempty"`
	EvidenceID *string         `json:"evidence_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TransactionVoid supersedes a transaction without deleting it. Voided
// transactions stay visible for audit but are excluded from PaidTotal.
type TransactionVoid struct {
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason"`
	VoidedAt      time.Time `json:"voided_at"`
}

// SettlementEvent records a refund/credit issued against an overpaid line.
// It is a first-class event joined to the line, deliberately not a
// disguised transaction, so calculation code classifies it by type.
type SettlementEvent struct {
	ID        string    `json:"id"`
	LineID    int64     `json:"line_id"`
	Amount    Money     `json:"amount"`
	Note      string    `json:"note,omitempty"`
	SettledBy string    `json:"settled_by,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ParticipantLine is one player's obligation for one match.
//
// FixedAmount, when set, overrides the computed split (0 marks a free
// player). SplitAmount is recomputed by RecomputeSplits whenever
// membership or any fixed amount changes. PaidTotal, SettledTotal,
// DueAmount, CreditAmount and Status are derived by Recompute and are
// never set independently.
type ParticipantLine struct {
	ID          int64   `json:"id"`
	MatchID     int64   `json:"match_id"`
	PlayerID    *int64  `json:"player_id,omitempty"`
	PlayerPhone string  `json:"player_phone"`
	PlayerName  string  `json:"player_name"`
	FixedAmount *Money  `json:"fixed_amount,omitempty"`
	SplitAmount Money   `json:"split_amount"`

	Transactions []Transaction     `json:"transactions,omitempty"`
	Voids        []TransactionVoid `json:"voids,omitempty"`
	Settlements  []SettlementEvent `json:"settlements,omitempty"`

	PaidTotal    Money      `json:"paid_total"`
	SettledTotal Money      `json:"settled_total"`
	DueAmount    Money      `json:"due_amount"`
	CreditAmount Money      `json:"credit_amount"`
	Status       LineStatus `json:"status"`

	// Version backs the per-line optimistic mutation guard; the repository
	// refuses to persist a line whose stored version has moved on.
	Version int64 `json:"version"`
}

// MatchObligation is the fee ledger for one match: the total to collect
// and one line per participating player. TotalAmount is owned by the
// match-setup workflow and never mutated here.
type MatchObligation struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	MatchDate   time.Time          `json:"match_date"`
	TotalAmount Money              `json:"total_amount"`
	Status      ObligationStatus   `json:"status"`
	Lines       []*ParticipantLine `json:"lines,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// OutstandingLine is a line with unpaid dues, carried with enough match
// context to order it oldest-first during distribution.
type OutstandingLine struct {
	MatchID        int64
	MatchTitle     string
	MatchDate      time.Time
	MatchCreatedAt time.Time
	Line           *ParticipantLine
}

// EffectiveAmount is what this participant actually owes: the fixed
// override when present, otherwise the computed even split.
func (l *ParticipantLine) EffectiveAmount() Money {
	if l.FixedAmount != nil {
		return *l.FixedAmount
	}
	return l.SplitAmount
}

// IsVoided reports whether a transaction has a superseding void marker.
func (l *ParticipantLine) IsVoided(transactionID string) bool {
	for _, v := range l.Voids {
		if v.TransactionID == transactionID {
			return true
		}
	}
	return false
}
