package distribution

import (
	"github.com/stumpedhq/clubpay/internal/ledger"
)

// Entry records how much of a payment landed on one match.
type Entry struct {
	MatchID       int64        `json:"match_id"`
	LineID        int64        `json:"participant_line_id"`
	AmountApplied ledger.Money `json:"amount_applied"`
}

// Result is the outcome of one distribution call. Conservation holds for
// every result: TotalApplied + RemainingUnapplied equals the input amount.
type Result struct {
	Distributions      []Entry      `json:"distributions"`
	TotalApplied       ledger.Money `json:"total_applied"`
	RemainingUnapplied ledger.Money `json:"remaining_unapplied"`

	// Credited is the slice of TotalApplied that exceeded all dues and was
	// parked as credit on the most recently touched line.
	Credited ledger.Money `json:"credited"`

	// Unattributable is set when the player had no outstanding dues at
	// all. Nothing was mutated; the caller routes the funds manually.
	Unattributable bool `json:"unattributable"`
}
