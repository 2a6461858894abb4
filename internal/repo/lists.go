package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// List is a shared expense list.
type List struct {
	ID         string
	Name       string
	Currency   string
	InviteCode string
	OwnerID    string
	Deleting   bool
	CreatedAt  time.Time
}

// CreateList inserts a list and its owner's membership in one transaction.
func (s *Store) CreateList(ctx context.Context, name, currency, inviteCode, ownerID string) (List, error) {
	owner, err := toUUID(ownerID)
	if err != nil {
		return List{}, fmt.Errorf("parse owner id: %w", err)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return List{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		INSERT INTO lists (name, currency, invite_code, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, currency, invite_code, owner_id, deleting, created_at`,
		name, currency, inviteCode, owner)
	list, err := scanList(row)
	if err != nil {
		return List{}, err
	}

	listID, err := toUUID(list.ID)
	if err != nil {
		return List{}, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO list_members (list_id, user_id) VALUES ($1, $2)`, listID, owner); err != nil {
		return List{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return List{}, err
	}
	return list, nil
}

// GetList fetches a list by id.
func (s *Store) GetList(ctx context.Context, listID string) (List, error) {
	id, err := toUUID(listID)
	if err != nil {
		return List{}, ErrNoRows
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, currency, invite_code, owner_id, deleting, created_at
		FROM lists WHERE id = $1`, id)
	return scanList(row)
}

// ListsForUser returns the lists the given user is a member of, newest first.
func (s *Store) ListsForUser(ctx context.Context, userID string) ([]List, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT l.id, l.name, l.currency, l.invite_code, l.owner_id, l.deleting, l.created_at
		FROM lists l
		JOIN list_members m ON m.list_id = l.id
		WHERE m.user_id = $1 AND NOT l.deleting
		ORDER BY l.created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lists []List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// AddMember joins a user to a list. Re-joining is a no-op, mirroring
// array-union semantics.
func (s *Store) AddMember(ctx context.Context, listID, userID string) error {
	lid, err := toUUID(listID)
	if err != nil {
		return fmt.Errorf("parse list id: %w", err)
	}
	uid, err := toUUID(userID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO list_members (list_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (list_id, user_id) DO NOTHING`, lid, uid)
	return err
}

// IsMember reports whether the user belongs to the list.
func (s *Store) IsMember(ctx context.Context, listID, userID string) (bool, error) {
	lid, err := toUUID(listID)
	if err != nil {
		return false, nil
	}
	uid, err := toUUID(userID)
	if err != nil {
		return false, nil
	}
	var exists bool
	err = s.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM list_members WHERE list_id = $1 AND user_id = $2)`,
		lid, uid).Scan(&exists)
	return exists, err
}

// Members returns the participant ids of a list in join order.
func (s *Store) Members(ctx context.Context, listID string) ([]string, error) {
	lid, err := toUUID(listID)
	if err != nil {
		return nil, fmt.Errorf("parse list id: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT user_id FROM list_members WHERE list_id = $1 ORDER BY joined_at`, lid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []string
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, uuidString(id))
	}
	return members, rows.Err()
}

// MarkListDeleting flags a list as pending deletion so it disappears from
// listings while the purge worker drains its expenses.
func (s *Store) MarkListDeleting(ctx context.Context, listID string) error {
	lid, err := toUUID(listID)
	if err != nil {
		return fmt.Errorf("parse list id: %w", err)
	}
	tag, err := s.Pool.Exec(ctx, `UPDATE lists SET deleting = TRUE WHERE id = $1`, lid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// DeleteList removes the list row and its memberships. Expenses are expected
// to have been drained beforehand.
func (s *Store) DeleteList(ctx context.Context, listID string) error {
	lid, err := toUUID(listID)
	if err != nil {
		return fmt.Errorf("parse list id: %w", err)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM list_members WHERE list_id = $1`, lid); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM lists WHERE id = $1`, lid); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanList(row rowScanner) (List, error) {
	var (
		id, owner pgtype.UUID
		createdAt pgtype.Timestamptz
		l         List
	)
	if err := row.Scan(&id, &l.Name, &l.Currency, &l.InviteCode, &owner, &l.Deleting, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return List{}, ErrNoRows
		}
		return List{}, err
	}
	l.ID = uuidString(id)
	l.OwnerID = uuidString(owner)
	l.CreatedAt = timeFromPG(createdAt)
	return l, nil
}
