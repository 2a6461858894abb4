package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adonis32/expenses-app/internal/events"
	"github.com/adonis32/expenses-app/internal/settle"
)

// Snapshot is the cached settlement input for a list: its participants and
// every expense recorded against it.
type Snapshot struct {
	ListID       string           `json:"list_id"`
	Currency     string           `json:"currency"`
	Participants []string         `json:"participants"`
	Expenses     []settle.Expense `json:"expenses"`
}

// Cache wraps Redis helpers for list snapshots.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key returns the cache key for a list's snapshot.
func Key(listID string) string {
	return "snap:list:" + listID
}

// Get loads a cached snapshot. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, listID string) (Snapshot, bool, error) {
	if c == nil || c.client == nil || listID == "" {
		return Snapshot{}, false, nil
	}
	data, err := c.client.Get(ctx, Key(listID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Set stores a snapshot with the configured TTL.
func (c *Cache) Set(ctx context.Context, snap Snapshot) error {
	if c == nil || c.client == nil || snap.ListID == "" {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(snap.ListID), data, c.ttl).Err()
}

// Invalidate drops a list's cached snapshot.
func (c *Cache) Invalidate(ctx context.Context, listID string) error {
	if c == nil || c.client == nil || listID == "" {
		return nil
	}
	return c.client.Del(ctx, Key(listID)).Err()
}

// Invalidator drops cached snapshots when list-scoped events fire.
type Invalidator struct {
	Cache *Cache
}

var _ events.Notifier = (*Invalidator)(nil)

// Notify implements events.Notifier.
func (i *Invalidator) Notify(ctx context.Context, event events.Event) error {
	if i == nil || i.Cache == nil {
		return nil
	}
	return i.Cache.Invalidate(ctx, event.ListID)
}
