package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrInconsistentFees  = errors.New("fee setup inconsistent: fixed amounts do not cover the total and no line is left to split the remainder")
	ErrNothingToSettle   = errors.New("nothing to settle: line has no outstanding credit")
)

// Recompute re-derives PaidTotal, SettledTotal, DueAmount, CreditAmount and
// Status from the line's event history. It is the single place the
// due/paid/overpaid classification lives; every mutation ends here.
//
// Let net = paidTotal - settledTotal and eff = EffectiveAmount():
//
//	net <  eff: due = eff - net, credit = 0, status PENDING (net==0) or PARTIAL
//	net == eff: due = 0, credit = 0, status PAID
//	net >  eff: due = 0, credit = net - eff, status OVERPAID
func (l *ParticipantLine) Recompute() {
	var paid Money
	for _, tx := range l.Transactions {
		if !l.IsVoided(tx.ID) {
			paid += tx.Amount
		}
	}

	var settled Money
	for _, s := range l.Settlements {
		settled += s.Amount
	}

	l.PaidTotal = paid
	l.SettledTotal = settled

	eff := l.EffectiveAmount()
	net := paid - settled

	switch {
	case net < eff:
		l.DueAmount = eff - net
		l.CreditAmount = 0
		if net == 0 {
			l.Status = LineStatusPending
		} else {
			l.Status = LineStatusPartial
		}
	case net == eff:
		l.DueAmount = 0
		l.CreditAmount = 0
		l.Status = LineStatusPaid
	default:
		l.DueAmount = 0
		l.CreditAmount = net - eff
		l.Status = LineStatusOverpaid
	}
}

// RecomputeSplits recalculates SplitAmount across all lines without a
// fixed amount so that the effective amounts sum to exactly TotalAmount.
// The integer division remainder is assigned to the first non-fixed line,
// which keeps the sum exact instead of drifting by a paisa per recompute.
//
// Must be called after every membership change or fixed-amount edit.
func RecomputeSplits(o *MatchObligation) error {
	remaining := o.TotalAmount
	var splittable []*ParticipantLine
	for _, l := range o.Lines {
		if l.FixedAmount != nil {
			remaining -= *l.FixedAmount
		} else {
			splittable = append(splittable, l)
		}
	}

	if len(splittable) == 0 {
		if remaining != 0 {
			return ErrInconsistentFees
		}
		RefreshObligationStatus(o)
		return nil
	}

	n := Money(len(splittable))
	share := remaining / n
	remainder := remaining - share*n

	for i, l := range splittable {
		l.SplitAmount = share
		if i == 0 {
			l.SplitAmount += remainder
		}
		l.Recompute()
	}
	RefreshObligationStatus(o)
	return nil
}

// RefreshObligationStatus derives the match-level status from its lines:
// COMPLETE when nothing is due anywhere, PARTIAL when any money has come
// in, PENDING otherwise.
func RefreshObligationStatus(o *MatchObligation) {
	if len(o.Lines) == 0 {
		o.Status = ObligationStatusPending
		return
	}

	allSettled := true
	anyPaid := false
	for _, l := range o.Lines {
		if l.DueAmount > 0 {
			allSettled = false
		}
		if l.PaidTotal > 0 {
			anyPaid = true
		}
	}

	switch {
	case allSettled:
		o.Status = ObligationStatusComplete
	case anyPaid:
		o.Status = ObligationStatusPartial
	default:
		o.Status = ObligationStatusPending
	}
}

// TransactionMeta carries the caller-supplied context for a payment.
type TransactionMeta struct {
	Method     string
	Note       string
	EvidenceID *string
	OccurredAt time.Time
}

// ApplyPayment appends one payment transaction to the line and re-derives
// its totals. It never touches other lines; callers persist.
func ApplyPayment(l *ParticipantLine, amount Money, meta TransactionMeta) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	occurredAt := meta.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	tx := Transaction{
		ID:         uuid.NewString(),
		LineID:     l.ID,
		Amount:     amount,
		Kind:       TransactionKindPayment,
		Method:     meta.Method,
		Note:       meta.Note,
		EvidenceID: meta.EvidenceID,
		OccurredAt: occurredAt,
	}
	l.Transactions = append(l.Transactions, tx)
	l.Recompute()
	return &l.Transactions[len(l.Transactions)-1], nil
}

// VoidAllTransactions supersedes every live transaction on the line (the
// admin "mark unpaid" override). The transactions themselves stay in the
// history for audit.
func VoidAllTransactions(l *ParticipantLine, reason string) {
	now := time.Now().UTC()
	for _, tx := range l.Transactions {
		if !l.IsVoided(tx.ID) {
			l.Voids = append(l.Voids, TransactionVoid{
				TransactionID: tx.ID,
				Reason:        reason,
				VoidedAt:      now,
			})
		}
	}
	l.Recompute()
}

// ForcePaid voids the line's live transactions and appends one synthetic
// adjustment for the effective amount, leaving the line exactly PAID (the
// admin "mark paid" override, e.g. cash handed over at the ground).
func ForcePaid(l *ParticipantLine, note string) *Transaction {
	VoidAllTransactions(l, "superseded by admin mark-paid")

	tx := Transaction{
		ID:         uuid.NewString(),
		LineID:     l.ID,
		Amount:     l.EffectiveAmount(),
		Kind:       TransactionKindAdjustment,
		Method:     "ADJUSTMENT",
		Note:       note,
		OccurredAt: time.Now().UTC(),
	}
	l.Transactions = append(l.Transactions, tx)
	l.Recompute()
	return &l.Transactions[len(l.Transactions)-1]
}

// ApplySettlement converts the line's outstanding credit into a tracked
// SettlementEvent. SettledTotal only ever increases; the payment evidence
// behind the overpayment is untouched.
func ApplySettlement(l *ParticipantLine, settledBy, note string) (*SettlementEvent, error) {
	if l.Status != LineStatusOverpaid || l.CreditAmount <= 0 {
		return nil, ErrNothingToSettle
	}

	ev := SettlementEvent{
		ID:         uuid.NewString(),
		LineID:     l.ID,
		Amount:     l.CreditAmount,
		Note:       note,
		SettledBy:  settledBy,
		OccurredAt: time.Now().UTC(),
	}
	l.Settlements = append(l.Settlements, ev)
	l.Recompute()
	return &l.Settlements[len(l.Settlements)-1], nil
}
