package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/stumpedhq/clubpay/internal/identity"
)

// ErrVersionConflict means another writer persisted the line between our
// read and write. The caller reloads and retries; the engine never does.
var ErrVersionConflict = errors.New("line was modified concurrently")

// Repository handles obligation and line persistence. Every line write
// goes through the optimistic version guard; there is deliberately no
// cross-match transaction anywhere here.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new ledger repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const lineColumns = `
	id, match_id, player_id, player_phone, player_name,
	fixed_amount, split_amount, paid_total, settled_total,
	due_amount, credit_amount, status, version`

// CreateObligation inserts a match obligation with its initial lines.
// Split amounts must already be computed by the caller.
func (r *Repository) CreateObligation(ctx context.Context, o *MatchObligation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO match_obligations (title, match_date, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, o.Title, o.MatchDate, o.TotalAmount, o.Status).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}

	for _, l := range o.Lines {
		l.MatchID = o.ID
		if err := insertLine(ctx, tx, l); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertLine(ctx context.Context, tx *sql.Tx, l *ParticipantLine) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO participant_lines
			(match_id, player_id, player_phone, player_name, fixed_amount,
			 split_amount, paid_total, settled_total, due_amount, credit_amount, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING id, version
	`, l.MatchID, l.PlayerID, l.PlayerPhone, l.PlayerName, (*int64)(l.FixedAmount),
		l.SplitAmount, l.PaidTotal, l.SettledTotal, l.DueAmount, l.CreditAmount, l.Status).
		Scan(&l.ID, &l.Version)
	if err != nil {
		return fmt.Errorf("failed to insert line: %w", err)
	}
	return nil
}

// GetObligation loads a match obligation with all lines and their event
// history.
func (r *Repository) GetObligation(ctx context.Context, id int64) (*MatchObligation, error) {
	o := &MatchObligation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, match_date, total_amount, status, created_at
		FROM match_obligations WHERE id = $1
	`, id).Scan(&o.ID, &o.Title, &o.MatchDate, &o.TotalAmount, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+lineColumns+`
		FROM participant_lines WHERE match_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan lines: %w", err)
	}

	if err := r.loadLineEvents(ctx, o.Lines); err != nil {
		return nil, err
	}
	return o, nil
}

// GetLine loads a single line with its event history.
func (r *Repository) GetLine(ctx context.Context, lineID int64) (*ParticipantLine, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+lineColumns+`
		FROM participant_lines WHERE id = $1
	`, lineID)

	l, err := scanLine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadLineEvents(ctx, []*ParticipantLine{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// OutstandingLines returns the player's lines with dues, joined by player
// id when known and by normalized phone otherwise, with the match context
// the distribution engine sorts on.
func (r *Repository) OutstandingLines(ctx context.Context, player identity.PlayerRef) ([]OutstandingLine, error) {
	return r.playerLines(ctx, player, true)
}

// PlayerLines returns every line for a player across matches, for
// summaries and timelines.
func (r *Repository) PlayerLines(ctx context.Context, player identity.PlayerRef) ([]OutstandingLine, error) {
	return r.playerLines(ctx, player, false)
}

func (r *Repository) playerLines(ctx context.Context, player identity.PlayerRef, dueOnly bool) ([]OutstandingLine, error) {
	query := `
		SELECT m.id, m.title, m.match_date, m.created_at,
		       l.id, l.match_id, l.player_id, l.player_phone, l.player_name,
		       l.fixed_amount, l.split_amount, l.paid_total, l.settled_total,
		       l.due_amount, l.credit_amount, l.status, l.version
		FROM participant_lines l
		JOIN match_obligations m ON m.id = l.match_id
		WHERE (($1::bigint IS NOT NULL AND l.player_id = $1) OR l.player_phone = $2)`
	if dueOnly {
		query += ` AND l.due_amount > 0`
	}
	query += ` ORDER BY m.match_date, m.created_at, l.id`

	rows, err := r.db.QueryContext(ctx, query, player.PlayerID, player.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to list player lines: %w", err)
	}
	defer rows.Close()

	var out []OutstandingLine
	for rows.Next() {
		var c OutstandingLine
		l := &ParticipantLine{}
		var fixed sql.NullInt64
		var playerID sql.NullInt64
		if err := rows.Scan(
			&c.MatchID, &c.MatchTitle, &c.MatchDate, &c.MatchCreatedAt,
			&l.ID, &l.MatchID, &playerID, &l.PlayerPhone, &l.PlayerName,
			&fixed, &l.SplitAmount, &l.PaidTotal, &l.SettledTotal,
			&l.DueAmount, &l.CreditAmount, &l.Status, &l.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player line: %w", err)
		}
		if playerID.Valid {
			l.PlayerID = &playerID.Int64
		}
		if fixed.Valid {
			f := Money(fixed.Int64)
			l.FixedAmount = &f
		}
		c.Line = l
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan player lines: %w", err)
	}

	lines := make([]*ParticipantLine, len(out))
	for i := range out {
		lines[i] = out[i].Line
	}
	if err := r.loadLineEvents(ctx, lines); err != nil {
		return nil, err
	}
	return out, nil
}

// PersistPayment stores one new transaction and the line's recomputed
// totals under the optimistic version guard.
func (r *Repository) PersistPayment(ctx context.Context, line *ParticipantLine, txn *Transaction) error {
	return r.persistLine(ctx, line, func(ctx context.Context, tx *sql.Tx) error {
		return insertTransaction(ctx, tx, txn)
	})
}

// PersistSettlement stores one settlement event and the line's recomputed
// totals.
func (r *Repository) PersistSettlement(ctx context.Context, line *ParticipantLine, ev *SettlementEvent) error {
	return r.persistLine(ctx, line, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settlement_events (id, line_id, amount, note, settled_by, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ev.ID, ev.LineID, ev.Amount, ev.Note, ev.SettledBy, ev.OccurredAt)
		if err != nil {
			return fmt.Errorf("failed to insert settlement event: %w", err)
		}
		return nil
	})
}

// PersistOverride stores the voids and optional synthetic transaction an
// admin override produced, plus the recomputed totals.
func (r *Repository) PersistOverride(ctx context.Context, line *ParticipantLine, newVoids []TransactionVoid, newTx *Transaction) error {
	return r.persistLine(ctx, line, func(ctx context.Context, tx *sql.Tx) error {
		for _, v := range newVoids {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transaction_voids (transaction_id, reason, voided_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (transaction_id) DO NOTHING
			`, v.TransactionID, v.Reason, v.VoidedAt)
			if err != nil {
				return fmt.Errorf("failed to insert void: %w", err)
			}
		}
		if newTx != nil {
			return insertTransaction(ctx, tx, newTx)
		}
		return nil
	})
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, line_id, amount, kind, method, note, evidence_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, txn.ID, txn.LineID, txn.Amount, txn.Kind, txn.Method, txn.Note, txn.EvidenceID, txn.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// persistLine runs the event insert and the guarded line update in one
// per-line database transaction. The version check is what serializes two
// writers racing on the same line.
func (r *Repository) persistLine(ctx context.Context, line *ParticipantLine, insertEvents func(context.Context, *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEvents(ctx, tx); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE participant_lines
		SET paid_total = $2, settled_total = $3, due_amount = $4,
		    credit_amount = $5, status = $6, version = version + 1
		WHERE id = $1 AND version = $7
	`, line.ID, line.PaidTotal, line.SettledTotal, line.DueAmount,
		line.CreditAmount, line.Status, line.Version)
	if err != nil {
		return fmt.Errorf("failed to update line: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit line update: %w", err)
	}
	line.Version++
	return nil
}

// ReplaceLines rewrites an obligation's line set after a membership or
// fixed-amount change: updates split/due/status on survivors, inserts new
// lines, removes dropped ones, and stores the derived obligation status.
// One match, one transaction.
func (r *Repository) ReplaceLines(ctx context.Context, o *MatchObligation, removedLineIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(removedLineIDs) > 0 {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM participant_lines WHERE match_id = $1 AND id = ANY($2)
		`, o.ID, pq.Array(removedLineIDs))
		if err != nil {
			return fmt.Errorf("failed to remove lines: %w", err)
		}
	}

	for _, l := range o.Lines {
		if l.ID == 0 {
			l.MatchID = o.ID
			if err := insertLine(ctx, tx, l); err != nil {
				return err
			}
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE participant_lines
			SET fixed_amount = $2, split_amount = $3, paid_total = $4,
			    settled_total = $5, due_amount = $6, credit_amount = $7,
			    status = $8, version = version + 1
			WHERE id = $1 AND version = $9
		`, l.ID, (*int64)(l.FixedAmount), l.SplitAmount, l.PaidTotal,
			l.SettledTotal, l.DueAmount, l.CreditAmount, l.Status, l.Version)
		if err != nil {
			return fmt.Errorf("failed to update line: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read update result: %w", err)
		}
		if n == 0 {
			return ErrVersionConflict
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE match_obligations SET status = $2 WHERE id = $1
	`, o.ID, o.Status)
	if err != nil {
		return fmt.Errorf("failed to update obligation status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit line changes: %w", err)
	}
	for _, l := range o.Lines {
		if l.ID != 0 {
			l.Version++
		}
	}
	return nil
}

// UpdateObligationStatus stores a freshly derived match-level status.
func (r *Repository) UpdateObligationStatus(ctx context.Context, o *MatchObligation) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE match_obligations SET status = $2 WHERE id = $1
	`, o.ID, o.Status)
	if err != nil {
		return fmt.Errorf("failed to update obligation status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLine(row rowScanner) (*ParticipantLine, error) {
	l := &ParticipantLine{}
	var fixed sql.NullInt64
	var playerID sql.NullInt64
	err := row.Scan(
		&l.ID, &l.MatchID, &playerID, &l.PlayerPhone, &l.PlayerName,
		&fixed, &l.SplitAmount, &l.PaidTotal, &l.SettledTotal,
		&l.DueAmount, &l.CreditAmount, &l.Status, &l.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan line: %w", err)
	}
	if playerID.Valid {
		l.PlayerID = &playerID.Int64
	}
	if fixed.Valid {
		f := Money(fixed.Int64)
		l.FixedAmount = &f
	}
	return l, nil
}

// loadLineEvents attaches transactions, voids and settlement events to the
// given lines.
func (r *Repository) loadLineEvents(ctx context.Context, lines []*ParticipantLine) error {
	if len(lines) == 0 {
		return nil
	}
	byID := make(map[int64]*ParticipantLine, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.line_id, t.amount, t.kind, t.method, t.note, t.evidence_id, t.occurred_at,
		       v.transaction_id, v.reason, v.voided_at
		FROM transactions t
		LEFT JOIN transaction_voids v ON v.transaction_id = t.id
		WHERE t.line_id = ANY($1)
		ORDER BY t.occurred_at, t.id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Transaction
		var evidenceID sql.NullString
		var note sql.NullString
		var voidTxID, voidReason sql.NullString
		var voidedAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.LineID, &t.Amount, &t.Kind, &t.Method, &note, &evidenceID, &t.OccurredAt,
			&voidTxID, &voidReason, &voidedAt,
		); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		if note.Valid {
			t.Note = note.String
		}
		if evidenceID.Valid {
			t.EvidenceID = &evidenceID.String
		}
		l := byID[t.LineID]
		if l == nil {
			continue
		}
		l.Transactions = append(l.Transactions, t)
		if voidTxID.Valid {
			l.Voids = append(l.Voids, TransactionVoid{
				TransactionID: voidTxID.String,
				Reason:        voidReason.String,
				VoidedAt:      voidedAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to scan transactions: %w", err)
	}

	srows, err := r.db.QueryContext(ctx, `
		SELECT id, line_id, amount, note, settled_by, occurred_at
		FROM settlement_events
		WHERE line_id = ANY($1)
		ORDER BY occurred_at, id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to list settlement events: %w", err)
	}
	defer srows.Close()

	for srows.Next() {
		var ev SettlementEvent
		var note, settledBy sql.NullString
		if err := srows.Scan(&ev.ID, &ev.LineID, &ev.Amount, &note, &settledBy, &ev.OccurredAt); err != nil {
			return fmt.Errorf("failed to scan settlement event: %w", err)
		}
		ev.Note = note.String
		ev.SettledBy = settledBy.String
		if l := byID[ev.LineID]; l != nil {
			l.Settlements = append(l.Settlements, ev)
		}
	}
	if err := srows.Err(); err != nil {
		return fmt.Errorf("failed to scan settlement events: %w", err)
	}
	return nil
}
