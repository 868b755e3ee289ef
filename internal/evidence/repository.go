package evidence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepository persists evidence records. The unique index on
// message_id is load-bearing: it is what makes double webhook deliveries
// collapse into one record.
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new evidence repository.
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const evidenceColumns = `
	id, message_id, player_id, player_phone, blob_ref, content_type,
	amount, confidence, is_payment_screenshot, provider, model, payer_name,
	ext_transaction_id, claimed_date, payment_method, upi_id, image_hash,
	status, review_reason, distributions, total_applied, remaining_unapplied,
	reviewed_by, review_notes, reviewed_at, created_at`

// Insert stores a new evidence record. Returns ErrDuplicateMessage when
// the message id already exists.
func (r *PostgresRepository) Insert(ctx context.Context, ev *PaymentEvidence) error {
	distributions, err := json.Marshal(ev.Distributions)
	if err != nil {
		return fmt.Errorf("failed to encode distributions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payment_evidence
			(id, message_id, player_id, player_phone, blob_ref, content_type,
			 amount, confidence, is_payment_screenshot, provider, model, payer_name,
			 ext_transaction_id, claimed_date, payment_method, upi_id, image_hash,
			 status, review_reason, distributions, total_applied, remaining_unapplied,
			 reviewed_by, review_notes, reviewed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`,
		ev.ID, ev.MessageID, ev.PlayerID, ev.PlayerPhone, ev.BlobRef, ev.ContentType,
		ev.Extraction.Amount, ev.Extraction.Confidence, ev.Extraction.IsPaymentScreenshot,
		ev.Extraction.Provider, ev.Extraction.Model, ev.Extraction.PayerName,
		ev.Extraction.TransactionID, ev.Extraction.ClaimedDate, ev.Extraction.PaymentMethod,
		ev.Extraction.UPIID, ev.Extraction.ImageHash,
		ev.Status, (*string)(ev.ReviewReason), distributions, ev.TotalApplied, ev.RemainingUnapplied,
		ev.ReviewedBy, ev.ReviewNotes, ev.ReviewedAt, ev.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("failed to insert evidence: %w", err)
	}
	return nil
}

// Update stores the mutable outcome fields of an evidence record.
func (r *PostgresRepository) Update(ctx context.Context, ev *PaymentEvidence) error {
	distributions, err := json.Marshal(ev.Distributions)
	if err != nil {
		return fmt.Errorf("failed to encode distributions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE payment_evidence
		SET status = $2, review_reason = $3, distributions = $4,
		    total_applied = $5, remaining_unapplied = $6,
		    reviewed_by = $7, review_notes = $8, reviewed_at = $9
		WHERE id = $1
	`, ev.ID, ev.Status, (*string)(ev.ReviewReason), distributions,
		ev.TotalApplied, ev.RemainingUnapplied,
		ev.ReviewedBy, ev.ReviewNotes, ev.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to update evidence: %w", err)
	}
	return nil
}

// GetByID retrieves one evidence record.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*PaymentEvidence, error) {
	return r.getOne(ctx, `SELECT `+evidenceColumns+` FROM payment_evidence WHERE id = $1`, id)
}

// GetByMessageID retrieves the record for an external message identifier.
func (r *PostgresRepository) GetByMessageID(ctx context.Context, messageID string) (*PaymentEvidence, error) {
	return r.getOne(ctx, `SELECT `+evidenceColumns+` FROM payment_evidence WHERE message_id = $1`, messageID)
}

// ExistsByImageHash reports whether any prior evidence carried the same
// screenshot content hash.
func (r *PostgresRepository) ExistsByImageHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM payment_evidence WHERE image_hash = $1)
	`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check image hash: %w", err)
	}
	return exists, nil
}

// ListPending returns the admin review queue, oldest first.
func (r *PostgresRepository) ListPending(ctx context.Context) ([]*PaymentEvidence, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+evidenceColumns+`
		FROM payment_evidence
		WHERE status = $1
		ORDER BY created_at
	`, StatusPendingReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending evidence: %w", err)
	}
	defer rows.Close()

	var out []*PaymentEvidence
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan pending evidence: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*PaymentEvidence, error) {
	ev, err := scanEvidence(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ev, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvidence(row rowScanner) (*PaymentEvidence, error) {
	ev := &PaymentEvidence{}
	var playerID sql.NullInt64
	var blobRef, contentType, provider, model, payerName sql.NullString
	var extTxID, claimedDate, paymentMethod, upiID, imageHash sql.NullString
	var reviewReason, reviewedBy, reviewNotes sql.NullString
	var reviewedAt sql.NullTime
	var distributions []byte

	err := row.Scan(
		&ev.ID, &ev.MessageID, &playerID, &ev.PlayerPhone, &blobRef, &contentType,
		&ev.Extraction.Amount, &ev.Extraction.Confidence, &ev.Extraction.IsPaymentScreenshot,
		&provider, &model, &payerName,
		&extTxID, &claimedDate, &paymentMethod, &upiID, &imageHash,
		&ev.Status, &reviewReason, &distributions, &ev.TotalApplied, &ev.RemainingUnapplied,
		&reviewedBy, &reviewNotes, &reviewedAt, &ev.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan evidence: %w", err)
	}

	if playerID.Valid {
		ev.PlayerID = &playerID.Int64
	}
	ev.BlobRef = blobRef.String
	ev.ContentType = contentType.String
	ev.Extraction.Provider = provider.String
	ev.Extraction.Model = model.String
	ev.Extraction.PayerName = payerName.String
	ev.Extraction.TransactionID = extTxID.String
	ev.Extraction.ClaimedDate = claimedDate.String
	ev.Extraction.PaymentMethod = paymentMethod.String
	ev.Extraction.UPIID = upiID.String
	ev.Extraction.ImageHash = imageHash.String
	if reviewReason.Valid {
		rr := ReviewReason(reviewReason.String)
		ev.ReviewReason = &rr
	}
	ev.ReviewedBy = reviewedBy.String
	ev.ReviewNotes = reviewNotes.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		ev.ReviewedAt = &t
	}
	if len(distributions) > 0 {
		if err := json.Unmarshal(distributions, &ev.Distributions); err != nil {
			return nil, fmt.Errorf("failed to decode distributions: %w", err)
		}
	}
	return ev, nil
}
