package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNoRows is returned when a lookup matches nothing.
var ErrNoRows = pgx.ErrNoRows

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, displayName string) (User, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, display_name, created_at, updated_at`,
		strings.ToLower(strings.TrimSpace(email)), passwordHash, strings.TrimSpace(displayName))
	return scanUser(row)
}

// GetUserByEmail fetches a user by normalised email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, userID string) (User, error) {
	id, err := toUUID(userID)
	if err != nil {
		return User{}, fmt.Errorf("parse user id: %w", err)
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdateDisplayName changes a user's display name.
func (s *Store) UpdateDisplayName(ctx context.Context, userID, displayName string) (User, error) {
	id, err := toUUID(userID)
	if err != nil {
		return User{}, fmt.Errorf("parse user id: %w", err)
	}
	row := s.Pool.QueryRow(ctx, `
		UPDATE users SET display_name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, email, password_hash, display_name, created_at, updated_at`,
		id, strings.TrimSpace(displayName))
	return scanUser(row)
}

// DisplayNames resolves display names for a set of user ids. Unknown ids are
// simply absent from the result.
func (s *Store) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	ids := make([]pgtype.UUID, 0, len(userIDs))
	for _, raw := range userIDs {
		id, err := toUUID(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT id, display_name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id pgtype.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[uuidString(id)] = name
	}
	return names, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		id                   pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
		u                    User
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.DisplayName, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNoRows
		}
		return User{}, err
	}
	u.ID = uuidString(id)
	u.CreatedAt = timeFromPG(createdAt)
	u.UpdatedAt = timeFromPG(updatedAt)
	return u, nil
}
