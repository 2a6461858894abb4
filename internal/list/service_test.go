package list

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/adonis32/expenses-app/internal/common"
	"github.com/adonis32/expenses-app/internal/events"
	"github.com/adonis32/expenses-app/internal/repo"
)

type fakeStore struct {
	lists    map[string]repo.List
	members  map[string]map[string]bool
	order    map[string][]string
	names    map[string]string
	eventErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:   make(map[string]repo.List),
		members: make(map[string]map[string]bool),
		order:   make(map[string][]string),
		names:   make(map[string]string),
	}
}

func (f *fakeStore) CreateList(_ context.Context, name, currency, inviteCode, ownerID string) (repo.List, error) {
	l := repo.List{
		ID:         uuid.NewString(),
		Name:       name,
		Currency:   currency,
		InviteCode: inviteCode,
		OwnerID:    ownerID,
	}
	f.lists[l.ID] = l
	f.members[l.ID] = map[string]bool{ownerID: true}
	f.order[l.ID] = []string{ownerID}
	return l, nil
}

func (f *fakeStore) GetList(_ context.Context, listID string) (repo.List, error) {
	l, ok := f.lists[listID]
	if !ok {
		return repo.List{}, repo.ErrNoRows
	}
	return l, nil
}

func (f *fakeStore) ListsForUser(_ context.Context, userID string) ([]repo.List, error) {
	var out []repo.List
	for id, l := range f.lists {
		if !l.Deleting && f.members[id][userID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) AddMember(_ context.Context, listID, userID string) error {
	if !f.members[listID][userID] {
		f.members[listID][userID] = true
		f.order[listID] = append(f.order[listID], userID)
	}
	return nil
}

func (f *fakeStore) IsMember(_ context.Context, listID, userID string) (bool, error) {
	return f.members[listID][userID], nil
}

func (f *fakeStore) Members(_ context.Context, listID string) ([]string, error) {
	return f.order[listID], nil
}

func (f *fakeStore) MarkListDeleting(_ context.Context, listID string) error {
	l, ok := f.lists[listID]
	if !ok {
		return repo.ErrNoRows
	}
	l.Deleting = true
	f.lists[listID] = l
	return nil
}

func (f *fakeStore) DisplayNames(_ context.Context, userIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeStore) InsertEvent(_ context.Context, _, _ string, _ []byte) error {
	return f.eventErr
}

type fakePurger struct {
	enqueued []string
	err      error
}

func (f *fakePurger) Enqueue(_ context.Context, listID string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, listID)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakePurger) {
	store := newFakeStore()
	purger := &fakePurger{}
	svc := &Service{
		Store:           store,
		Bus:             &events.Bus{Store: store},
		Purger:          purger,
		DefaultCurrency: "EUR",
	}
	return svc, store, purger
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCreateListDefaultsCurrency(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.NewString()

	created, err := svc.Create(context.Background(), owner, "Trip to Rome", "")
	require.NoError(t, err)
	require.Equal(t, "EUR", created.Currency)
	require.Equal(t, owner, created.OwnerID)
	require.NotEmpty(t, created.InviteCode)
}

func TestCreateSurvivesEventStoreFailure(t *testing.T) {
	svc, store, _ := newTestService()
	store.eventErr = errors.New("events table unavailable")
	owner := uuid.NewString()

	created, err := svc.Create(context.Background(), owner, "Trip to Rome", "EUR")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.InviteCode)
}

func TestCreateListValidation(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.NewString()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "  ", "EUR")
	require.Error(t, err)

	_, err = svc.Create(ctx, owner, "Trip", "EURO")
	require.Error(t, err)
}

func TestJoinWithInviteCode(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()
	joiner := uuid.NewString()

	created, err := svc.Create(ctx, owner, "Flat", "EUR")
	require.NoError(t, err)

	joined, err := svc.Join(ctx, joiner, created.ID, created.InviteCode)
	require.NoError(t, err)
	require.Equal(t, created.ID, joined.ID)
	require.True(t, store.members[created.ID][joiner])

	// joining again is a no-op
	_, err = svc.Join(ctx, joiner, created.ID, created.InviteCode)
	require.NoError(t, err)
	require.Len(t, store.order[created.ID], 2)
}

func TestJoinRejectsWrongCodeAsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	created, err := svc.Create(ctx, owner, "Flat", "EUR")
	require.NoError(t, err)

	_, err = svc.Join(ctx, uuid.NewString(), created.ID, "wrong-code")
	requireNotFound(t, err)

	_, err = svc.Join(ctx, uuid.NewString(), uuid.NewString(), "whatever")
	requireNotFound(t, err)
}

func TestJoinRequiresArguments(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Join(context.Background(), uuid.NewString(), "", "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_ARGUMENT", appErr.Code)
}

func TestGetHidesListsFromNonMembers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	created, err := svc.Create(ctx, owner, "Flat", "EUR")
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID, uuid.NewString())
	requireNotFound(t, err)

	got, err := svc.Get(ctx, created.ID, owner)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestMembersResolvesDisplayNames(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()
	store.names[owner] = "Alice"

	created, err := svc.Create(ctx, owner, "Flat", "EUR")
	require.NoError(t, err)

	members, err := svc.Members(ctx, created.ID, owner)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "Alice", members[0].DisplayName)
}

func TestDeleteMarksAndEnqueuesPurge(t *testing.T) {
	svc, store, purger := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	created, err := svc.Create(ctx, owner, "Flat", "EUR")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, owner))
	require.True(t, store.lists[created.ID].Deleting)
	require.Equal(t, []string{created.ID}, purger.enqueued)

	// a deleting list behaves as gone
	_, err = svc.Get(ctx, created.ID, owner)
	requireNotFound(t, err)
}

func TestDeleteRequiresOwner(t *testing.T) {
	svc, _, purger := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()
	member := uuid.NewString()

	created, err := svc.Create(ctx, owner, "Flat", "EUR")
	require.NoError(t, err)
	_, err = svc.Join(ctx, member, created.ID, created.InviteCode)
	require.NoError(t, err)

	err = svc.Delete(ctx, created.ID, member)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FORBIDDEN", appErr.Code)
	require.Empty(t, purger.enqueued)
}
