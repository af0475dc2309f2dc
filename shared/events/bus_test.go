package events

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDispatchesToStreamSubscribers(t *testing.T) {
	bus := NewLocalBus()
	var got []Event
	bus.Subscribe(LedgerEventsStream, func(ctx context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(IdentityEventsStream, func(ctx context.Context, e Event) error {
		t.Errorf("identity handler should not see ledger events, got %s", e.Type)
		return nil
	})

	err := bus.Publish(context.Background(), LedgerEventsStream, BalanceUpdated, BalanceUpdatedEvent{
		UserID:     "2",
		NewBalance: decimal.NewFromInt(2700),
		Change:     decimal.NewFromInt(-100),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, BalanceUpdated, got[0].Type)

	var payload BalanceUpdatedEvent
	require.NoError(t, got[0].Decode(&payload))
	require.Equal(t, "2", payload.UserID)
	require.True(t, payload.NewBalance.Equal(decimal.NewFromInt(2700)))
}

func TestLocalBusSwallowsHandlerErrors(t *testing.T) {
	bus := NewLocalBus()
	calls := 0
	bus.Subscribe(IdentityEventsStream, func(ctx context.Context, e Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Subscribe(IdentityEventsStream, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), IdentityEventsStream, UserRegistered, UserEvent{UserID: "usr-1"})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestEventDecodeFromGenericMap(t *testing.T) {
	e := Event{Type: UserVerified, Data: map[string]any{"userId": "1", "email": "john@example.com"}}
	var payload UserEvent
	require.NoError(t, e.Decode(&payload))
	require.Equal(t, "john@example.com", payload.Email)
}
