package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_FanOut(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventTokenIssued, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.Subject)
		return nil
	})
	d.Subscribe(EventTokenIssued, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.Subject)
		return nil
	})
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTokenIssued, "alice@example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first:alice@example.com", "second:alice@example.com"}, got)
}

func TestDispatcher_HandlerErrorsDoNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	called := false
	d.Subscribe(EventTokenRejected, func(context.Context, Event) error { return boom })
	d.Subscribe(EventTokenRejected, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTokenRejected, "bob@example.com", nil))
	assert.ErrorIs(t, err, boom)
	assert.True(t, called)
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()

	called := false
	d.Subscribe(EventPasswordChanged, func(context.Context, Event) error { panic("audit sink gone") })
	d.Subscribe(EventPasswordChanged, func(context.Context, Event) error {
		called = true
		return nil
	})

	var err error
	assert.NotPanics(t, func() {
		err = d.Publish(context.Background(), NewEvent(EventPasswordChanged, "alice@example.com", nil))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit sink gone")
	assert.True(t, called)
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventLoginFailed, "alice@example.com", LoginFailedPayload{Reason: "bad password"})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, EventLoginFailed, e.Type)
}
