package settlement

// SettleRequest resolves an overpaid line.
type SettleRequest struct {
	SettledBy string `json:"settled_by" validate:"required"`
	Note      string `json:"note,omitempty" validate:"max=500"`
}
