package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserRegistered = "user.registered"
	UserLoggedIn   = "user.logged_in"
	UserLoggedOut  = "user.logged_out"
	UserVerified   = "user.verified"

	TransactionCreated = "transaction.created"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	IdentityEventsStream = "identity.events"
	LedgerEventsStream   = "ledger.events"
)

// Emitter publishes an event to a stream. Publisher and LocalBus both
// implement it.
type Emitter interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode re-marshals Data into out. Data arrives as a generic map after a
// round trip through a stream, or as the typed payload from the local bus.
func (e Event) Decode(out any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// Identity events
type UserEvent struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId,omitempty"`
}

// Ledger events
type TransactionCreatedEvent struct {
	TransactionID string          `json:"transactionId"`
	SenderID      string          `json:"senderId"`
	SenderName    string          `json:"senderName"`
	RecipientID   string          `json:"recipientId"`
	RecipientName string          `json:"recipientName"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

type BalanceUpdatedEvent struct {
	UserID     string          `json:"userId"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Change     decimal.Decimal `json:"change"`
}
