package repo

import (
	"context"
	"fmt"
)

// InsertEvent appends a domain event to the audit stream.
func (s *Store) InsertEvent(ctx context.Context, topic, listID string, payload []byte) error {
	lid, err := toUUID(listID)
	if err != nil {
		return fmt.Errorf("parse list id: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO domain_events (topic, list_id, payload)
		VALUES ($1, $2, $3)`, topic, lid, payload)
	return err
}
