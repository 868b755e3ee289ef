package ledger

// ParticipantRequest is one player in a fee-setup request.
type ParticipantRequest struct {
	PlayerID    *int64 `json:"player_id,omitempty"`
	Phone       string `json:"phone" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=100"`
	FixedAmount *int64 `json:"fixed_amount,omitempty"` // minor units; 0 = free player
}

// CreateObligationRequest sets up the fee ledger for one match.
type CreateObligationRequest struct {
	Title        string               `json:"title" validate:"required,min=1,max=255"`
	MatchDate    string               `json:"match_date" validate:"required"` // YYYY-MM-DD
	TotalAmount  int64                `json:"total_amount" validate:"required,gte=0"`
	Participants []ParticipantRequest `json:"participants" validate:"required,min=1"`
}

// SetFixedAmountRequest overrides one line's contribution. A null fixed
// amount clears the override and returns the line to the even split.
type SetFixedAmountRequest struct {
	FixedAmount *int64 `json:"fixed_amount"`
}

// MarkPaidRequest force-settles a line.
type MarkPaidRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

// MarkUnpaidRequest voids a line's payments.
type MarkUnpaidRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// ToInput converts a ParticipantRequest to the service input type.
func (p *ParticipantRequest) ToInput() ParticipantInput {
	in := ParticipantInput{
		PlayerID: p.PlayerID,
		Phone:    p.Phone,
		Name:     p.Name,
	}
	if p.FixedAmount != nil {
		f := Money(*p.FixedAmount)
		in.FixedAmount = &f
	}
	return in
}
