package evidence

import (
	"time"

	"github.com/stumpedhq/clubpay/internal/ledger"
)

// IngestRequest is the webhook payload for one submitted screenshot with
// its extraction already attached.
type IngestRequest struct {
	MessageID   string     `json:"message_id" validate:"required"`
	PlayerID    *int64     `json:"player_id,omitempty"`
	PlayerPhone string     `json:"player_phone" validate:"required"`
	BlobRef     string     `json:"blob_ref,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	MatchDate   *string    `json:"match_date,omitempty"` // YYYY-MM-DD
	Extraction  Extraction `json:"extraction" validate:"required"`
}

// ReviewRequest is an admin decision on pending evidence.
type ReviewRequest struct {
	Action         string `json:"action" validate:"required,oneof=APPROVE REJECT"`
	OverrideAmount *int64 `json:"override_amount,omitempty"` // minor units
	ReviewedBy     string `json:"reviewed_by" validate:"required"`
	Notes          string `json:"notes,omitempty" validate:"max=500"`
}

// ToInput converts an IngestRequest to the service input type.
func (r *IngestRequest) ToInput() (IngestInput, error) {
	in := IngestInput{
		MessageID:   r.MessageID,
		PlayerID:    r.PlayerID,
		PlayerPhone: r.PlayerPhone,
		BlobRef:     r.BlobRef,
		ContentType: r.ContentType,
		Extraction:  r.Extraction,
	}
	if r.MatchDate != nil && *r.MatchDate != "" {
		d, err := time.Parse("2006-01-02", *r.MatchDate)
		if err != nil {
			return IngestInput{}, err
		}
		in.MatchDate = &d
	}
	return in, nil
}

// ToInput converts a ReviewRequest to the service input type.
func (r *ReviewRequest) ToInput() ReviewInput {
	in := ReviewInput{
		Action:     ReviewAction(r.Action),
		ReviewedBy: r.ReviewedBy,
		Notes:      r.Notes,
	}
	if r.OverrideAmount != nil {
		m := ledger.Money(*r.OverrideAmount)
		in.OverrideAmount = &m
	}
	return in
}
