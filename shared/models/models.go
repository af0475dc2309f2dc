package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses. Only StatusCompleted is produced today.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// The synthetic sender credited for wallet top-ups.
const (
	SystemSenderID   = "system"
	SystemSenderName = "System Top-up"
)

type User struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	IsAdmin      bool            `json:"isAdmin,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	IsVerified   bool            `json:"isVerified"`
	PasswordHash string          `json:"-"`
	CreatedAt    time.Time       `json:"createdTimestamp"`
}

type Transaction struct {
	ID            string          `json:"id"`
	SenderID      string          `json:"senderId"`
	SenderName    string          `json:"senderName"`
	RecipientID   string          `json:"recipientId"`
	RecipientName string          `json:"recipientName"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Involves reports whether userID is the sender or the recipient.
func (t *Transaction) Involves(userID string) bool {
	return t.SenderID == userID || t.RecipientID == userID
}

// WalletLink is an external wallet connected to a session.
type WalletLink struct {
	Provider    string    `json:"provider"`
	Address     string    `json:"address"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Activity is one entry of the admin activity feed.
type Activity struct {
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}
