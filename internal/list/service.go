package list

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adonis32/expenses-app/internal/common"
	"github.com/adonis32/expenses-app/internal/events"
	"github.com/adonis32/expenses-app/internal/repo"
)

// Store defines the persistence operations the list service needs.
type Store interface {
	CreateList(ctx context.Context, name, currency, inviteCode, ownerID string) (repo.List, error)
	GetList(ctx context.Context, listID string) (repo.List, error)
	ListsForUser(ctx context.Context, userID string) ([]repo.List, error)
	AddMember(ctx context.Context, listID, userID string) error
	IsMember(ctx context.Context, listID, userID string) (bool, error)
	Members(ctx context.Context, listID string) ([]string, error)
	MarkListDeleting(ctx context.Context, listID string) error
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

// PurgeEnqueuer schedules background purges of deleted lists.
type PurgeEnqueuer interface {
	Enqueue(ctx context.Context, listID string) error
}

// Service coordinates list lifecycle and membership.
type Service struct {
	Store           Store
	Bus             *events.Bus
	Purger          PurgeEnqueuer
	DefaultCurrency string
	Logger          zerolog.Logger
}

// List is the list representation returned to clients. The invite code is
// only present for members.
type List struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	InviteCode string `json:"invite_code,omitempty"`
	OwnerID    string `json:"owner_id"`
}

// Member pairs a participant id with their display name.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Create makes a new list owned by the given user and returns it with a
// freshly generated invite code.
func (s *Service) Create(ctx context.Context, ownerID, name, currency string) (List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, common.ErrInvalidArgument("list name is required")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}
	if len(currency) != 3 {
		return List{}, common.ErrInvalidArgument("currency must be a 3-letter code")
	}

	code, err := newInviteCode()
	if err != nil {
		return List{}, fmt.Errorf("generate invite code: %w", err)
	}

	created, err := s.Store.CreateList(ctx, name, currency, code, ownerID)
	if err != nil {
		return List{}, fmt.Errorf("create list: %w", err)
	}

	s.emit(ctx, events.TopicListCreated, created.ID, map[string]any{
		"owner_id": ownerID,
		"name":     name,
	})
	return convertList(created), nil
}

// Get returns a list for one of its members. Non-members receive a not
// found error so list ids cannot be probed.
func (s *Service) Get(ctx context.Context, listID, userID string) (List, error) {
	l, err := s.memberList(ctx, listID, userID)
	if err != nil {
		return List{}, err
	}
	return convertList(l), nil
}

// ForUser returns every list the user belongs to.
func (s *Service) ForUser(ctx context.Context, userID string) ([]List, error) {
	lists, err := s.Store.ListsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lists for user: %w", err)
	}
	out := make([]List, 0, len(lists))
	for _, l := range lists {
		out = append(out, convertList(l))
	}
	return out, nil
}

// Members returns the participants of a list with display names resolved.
func (s *Service) Members(ctx context.Context, listID, userID string) ([]Member, error) {
	if _, err := s.memberList(ctx, listID, userID); err != nil {
		return nil, err
	}
	ids, err := s.Store.Members(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	names, err := s.Store.DisplayNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve display names: %w", err)
	}
	members := make([]Member, 0, len(ids))
	for _, id := range ids {
		members = append(members, Member{UserID: id, DisplayName: names[id]})
	}
	return members, nil
}

// Join adds the user to a list identified by id and invite code. A wrong
// code is indistinguishable from an unknown list. Joining a list the user
// already belongs to succeeds without effect.
func (s *Service) Join(ctx context.Context, userID, listID, code string) (List, error) {
	listID = strings.TrimSpace(listID)
	code = strings.TrimSpace(code)
	if listID == "" || code == "" {
		return List{}, common.ErrInvalidArgument("list id and code are required")
	}

	l, err := s.Store.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, repo.ErrNoRows) {
			return List{}, common.ErrNotFound("list not found")
		}
		return List{}, fmt.Errorf("get list: %w", err)
	}
	if l.Deleting || l.InviteCode != code {
		return List{}, common.ErrNotFound("list not found")
	}

	already, err := s.Store.IsMember(ctx, listID, userID)
	if err != nil {
		return List{}, fmt.Errorf("check membership: %w", err)
	}
	if err := s.Store.AddMember(ctx, listID, userID); err != nil {
		return List{}, fmt.Errorf("add member: %w", err)
	}

	if !already {
		s.emit(ctx, events.TopicListMemberJoined, listID, map[string]any{
			"user_id": userID,
		})
	}
	return convertList(l), nil
}

// Delete marks a list for deletion and schedules a background purge of its
// expenses. Only the owner may delete a list.
func (s *Service) Delete(ctx context.Context, listID, userID string) error {
	l, err := s.memberList(ctx, listID, userID)
	if err != nil {
		return err
	}
	if l.OwnerID != userID {
		return common.NewAppError("FORBIDDEN", "only the owner can delete a list", http.StatusForbidden, nil)
	}
	if err := s.Store.MarkListDeleting(ctx, listID); err != nil {
		if errors.Is(err, repo.ErrNoRows) {
			return common.ErrNotFound("list not found")
		}
		return fmt.Errorf("mark list deleting: %w", err)
	}
	s.emit(ctx, events.TopicListDeleting, listID, map[string]any{
		"requested_by": userID,
	})
	if s.Purger == nil {
		return errors.New("list: purge enqueuer not configured")
	}
	if err := s.Purger.Enqueue(ctx, listID); err != nil {
		return fmt.Errorf("enqueue purge: %w", err)
	}
	return nil
}

// RequireMembership returns the list when the user is a member, and a not
// found error otherwise. Other services use it to gate list-scoped access.
func (s *Service) RequireMembership(ctx context.Context, listID, userID string) (repo.List, error) {
	return s.memberList(ctx, listID, userID)
}

func (s *Service) memberList(ctx context.Context, listID, userID string) (repo.List, error) {
	l, err := s.Store.GetList(ctx, listID)
	if err != nil {
		if errors.Is(err, repo.ErrNoRows) {
			return repo.List{}, common.ErrNotFound("list not found")
		}
		return repo.List{}, fmt.Errorf("get list: %w", err)
	}
	if l.Deleting {
		return repo.List{}, common.ErrNotFound("list not found")
	}
	member, err := s.Store.IsMember(ctx, listID, userID)
	if err != nil {
		return repo.List{}, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return repo.List{}, common.ErrNotFound("list not found")
	}
	return l, nil
}

func newInviteCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// emit publishes a domain event. Event delivery is best effort from the
// caller's perspective; failures are logged and never fail the request.
func (s *Service) emit(ctx context.Context, topic, listID string, payload map[string]any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, listID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Str("list_id", listID).Msg("emit event")
	}
}

func convertList(l repo.List) List {
	return List{
		ID:         l.ID,
		Name:       l.Name,
		Currency:   l.Currency,
		InviteCode: l.InviteCode,
		OwnerID:    l.OwnerID,
	}
}
