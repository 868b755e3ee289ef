package evidence

import (
	"time"

	"github.com/stumpedhq/clubpay/internal/distribution"
	"github.com/stumpedhq/clubpay/internal/ledger"
)

// Status represents where a piece of evidence is in its lifecycle.
type Status string

const (
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusAutoApplied   Status = "AUTO_APPLIED"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusDuplicate     Status = "DUPLICATE"
)

// ReviewReason explains why evidence was routed to the admin queue.
type ReviewReason string

const (
	ReasonLowConfidence        ReviewReason = "LOW_CONFIDENCE"
	ReasonNotPaymentScreenshot ReviewReason = "NOT_PAYMENT_SCREENSHOT"
	ReasonDateMismatch         ReviewReason = "DATE_MISMATCH"
	ReasonDuplicate            ReviewReason = "DUPLICATE"
	ReasonNoOutstandingDues    ReviewReason = "NO_OUTSTANDING_DUES"
	ReasonPartialDistribution  ReviewReason = "PARTIAL_DISTRIBUTION"
)

// Extraction is the structured output of the external OCR/AI service for
// one screenshot. The engine treats it as given; it never calls the
// extractor itself.
type Extraction struct {
	Amount              ledger.Money `json:"amount"`
	Confidence          float64      `json:"confidence"`
	IsPaymentScreenshot bool         `json:"is_payment_screenshot"`
	Provider            string       `json:"provider,omitempty"`
	Model               string       `json:"model,omitempty"`
	PayerName           string       `json:"payer_name,omitempty"`
	TransactionID       string       `json:"transaction_id,omitempty"`
	ClaimedDate         string       `json:"claimed_date,omitempty"` // YYYY-MM-DD
	PaymentMethod       string       `json:"payment_method,omitempty"`
	UPIID               string       `json:"upi_id,omitempty"`
	ImageHash           string       `json:"image_hash,omitempty"` // SHA-256 of the screenshot
}

// PaymentEvidence is one submitted screenshot and everything that happened
// to it. It holds only weak references (match id / line id pairs) to the
// lines it touched; one evidence item can span many matches.
type PaymentEvidence struct {
	ID          string `json:"id"`
	MessageID   string `json:"message_id"` // external message identifier, idempotency key
	PlayerID    *int64 `json:"player_id,omitempty"`
	PlayerPhone string `json:"player_phone"` // normalized
	BlobRef     string `json:"blob_ref,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	Extraction Extraction `json:"extraction"`

	Status       Status        `json:"status"`
	ReviewReason *ReviewReason `json:"review_reason,omitempty"`

	Distributions      []distribution.Entry `json:"distributions,omitempty"`
	TotalApplied       ledger.Money         `json:"total_applied"`
	RemainingUnapplied ledger.Money         `json:"remaining_unapplied"`

	ReviewedBy  string     `json:"reviewed_by,omitempty"`
	ReviewNotes string     `json:"review_notes,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
