package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/adonis32/expenses-app/internal/settle"
)

// ExpenseRecord is a stored expense plus its persistence identity.
type ExpenseRecord struct {
	ID        string
	ListID    string
	Expense   settle.Expense
	CreatedAt time.Time
}

// InsertExpense stores an expense against a list.
func (s *Store) InsertExpense(ctx context.Context, listID string, e settle.Expense) (ExpenseRecord, error) {
	lid, err := toUUID(listID)
	if err != nil {
		return ExpenseRecord{}, fmt.Errorf("parse list id: %w", err)
	}
	payer, err := toUUID(e.PayerID)
	if err != nil {
		return ExpenseRecord{}, fmt.Errorf("parse payer id: %w", err)
	}
	var shares []byte
	if e.Format == settle.FormatWeighted {
		shares, err = json.Marshal(e.Shares)
		if err != nil {
			return ExpenseRecord{}, fmt.Errorf("encode shares: %w", err)
		}
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO expenses (list_id, payer_id, amount_minor, currency, format, shares, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		lid, payer, e.Amount.AmountMinor, e.Amount.Currency, int(e.Format), shares, pgTimestamp(e.RecordedAt))

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &createdAt); err != nil {
		return ExpenseRecord{}, err
	}
	return ExpenseRecord{
		ID:        uuidString(id),
		ListID:    listID,
		Expense:   e,
		CreatedAt: timeFromPG(createdAt),
	}, nil
}

// ListExpenses returns a list's expenses ordered by when they were recorded.
func (s *Store) ListExpenses(ctx context.Context, listID string) ([]ExpenseRecord, error) {
	lid, err := toUUID(listID)
	if err != nil {
		return nil, fmt.Errorf("parse list id: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, payer_id, amount_minor, currency, format, shares, recorded_at, created_at
		FROM expenses
		WHERE list_id = $1
		ORDER BY recorded_at, created_at`, lid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ExpenseRecord
	for rows.Next() {
		var (
			id, payer   pgtype.UUID
			amountMinor int64
			currency    string
			format      int
			shares      []byte
			recordedAt  pgtype.Timestamptz
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &payer, &amountMinor, &currency, &format, &shares, &recordedAt, &createdAt); err != nil {
			return nil, err
		}
		e := settle.Expense{
			PayerID:    uuidString(payer),
			Amount:     settle.Money{AmountMinor: amountMinor, Currency: currency},
			Format:     settle.Format(format),
			RecordedAt: timeFromPG(recordedAt),
		}
		if len(shares) > 0 {
			if err := json.Unmarshal(shares, &e.Shares); err != nil {
				return nil, fmt.Errorf("decode shares for expense %s: %w", uuidString(id), err)
			}
		}
		records = append(records, ExpenseRecord{
			ID:        uuidString(id),
			ListID:    listID,
			Expense:   e,
			CreatedAt: timeFromPG(createdAt),
		})
	}
	return records, rows.Err()
}

// DeleteExpenseBatch removes up to limit expenses from a list and reports how
// many were deleted. The purge worker calls it repeatedly until it returns 0.
func (s *Store) DeleteExpenseBatch(ctx context.Context, listID string, limit int) (int64, error) {
	lid, err := toUUID(listID)
	if err != nil {
		return 0, fmt.Errorf("parse list id: %w", err)
	}
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM expenses
		WHERE id IN (
			SELECT id FROM expenses WHERE list_id = $1 LIMIT $2
		)`, lid, limit)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
