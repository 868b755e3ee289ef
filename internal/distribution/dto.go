package distribution

// RecordPaymentRequest is an admin-entered payment with a confirmed amount
// (cash at the ground, a bank transfer seen on the statement).
type RecordPaymentRequest struct {
	PlayerID *int64 `json:"player_id,omitempty"`
	Phone    string `json:"phone" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"` // minor units
	Method   string `json:"method,omitempty"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}
