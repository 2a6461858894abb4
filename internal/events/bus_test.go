package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/adonis32/expenses-app/internal/events"
)

type stubStore struct {
	topic   string
	listID  string
	payload []byte
	err     error
}

func (s *stubStore) InsertEvent(_ context.Context, topic, listID string, payload []byte) error {
	s.topic = topic
	s.listID = listID
	s.payload = payload
	return s.err
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
	}

	listID := uuid.NewString()
	payload := map[string]any{"expenseId": "123"}
	ctx := context.Background()
	event, err := bus.Emit(ctx, events.TopicExpenseCreated, listID, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicExpenseCreated, store.topic)
	require.Equal(t, listID, store.listID)
	require.JSONEq(t, `{"expenseId":"123"}`, string(store.payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, events.TopicExpenseCreated, notifier.events[0].Topic)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["expenseId"])
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	ctx := context.Background()

	_, err := bus.Emit(ctx, "  ", uuid.NewString(), nil)
	require.Error(t, err)

	_, err = bus.Emit(ctx, events.TopicListCreated, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(ctx, events.TopicListCreated, uuid.NewString(), json.RawMessage("{not json"))
	require.Error(t, err)
}

func TestEmitDefaultsEmptyPayload(t *testing.T) {
	store := &stubStore{}
	bus := events.Bus{Store: store}

	_, err := bus.Emit(context.Background(), events.TopicListDeleting, uuid.NewString(), nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(store.payload))
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	store := &stubStore{}
	failing := &captureNotifier{err: errors.New("boom")}
	ok := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{failing, ok}}

	event, err := bus.Emit(context.Background(), events.TopicListMemberJoined, uuid.NewString(), nil)
	require.Error(t, err)
	require.Equal(t, events.TopicListMemberJoined, event.Topic)
	require.Len(t, ok.events, 1, "later notifiers still run")
}

func TestEmitStoreFailureSkipsNotifiers(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	_, err := bus.Emit(context.Background(), events.TopicListCreated, uuid.NewString(), nil)
	require.Error(t, err)
	require.Empty(t, notifier.events)
}
