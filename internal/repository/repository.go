// Package repository holds the user directory and the transaction log.
//
// Both are injected into the identity and ledger services. Every mutating
// method is atomic: a transfer debits, credits and appends to the log in
// one step or not at all.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Directory is the ordered collection of known users.
type Directory interface {
	// ListUsers returns users in directory order.
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByEmailOrPhone returns the first user, in directory order, whose
	// email or phone equals identifier.
	FindByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error)
	// CreateUser appends user. It returns ErrAlreadyExists when the email is
	// taken.
	CreateUser(ctx context.Context, user *models.User) error
	SetVerified(ctx context.Context, id string, verified bool) error
}

// Ledger is the transaction log, newest first, together with the balance
// mutations that produce its entries.
type Ledger interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	// ApplyTopUp credits tx.RecipientID and prepends tx.
	ApplyTopUp(ctx context.Context, tx *models.Transaction) error
	// ApplyTransfer debits tx.SenderID, credits tx.RecipientID and prepends
	// tx. It returns ErrInsufficientFunds if the sender balance no longer
	// covers tx.Amount.
	ApplyTransfer(ctx context.Context, tx *models.Transaction) error
}

type Store interface {
	Directory
	Ledger
}

// DemoUsers returns the seeded directory.
func DemoUsers() []models.User {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []models.User{
		{
			ID: "1", Name: "John Doe", Email: "john@example.com", Phone: "+1234567890",
			Balance: decimal.NewFromInt(1500), IsVerified: true, CreatedAt: created,
		},
		{
			ID: "2", Name: "Jane Smith", Email: "jane@example.com", Phone: "+9876543210",
			Balance: decimal.NewFromInt(2800), IsVerified: true, CreatedAt: created,
		},
		{
			ID: "3", Name: "Admin User", Email: "admin@example.com",
			Balance: decimal.NewFromInt(5000), IsAdmin: true, IsVerified: true, CreatedAt: created,
		},
	}
}

// DemoTransactions returns the seeded log, newest first, relative to now.
func DemoTransactions(now time.Time) []models.Transaction {
	day := 24 * time.Hour
	return []models.Transaction{
		{
			ID: "1", SenderID: "1", SenderName: "John Doe", RecipientID: "2", RecipientName: "Jane Smith",
			Amount: decimal.NewFromInt(250), Status: models.StatusCompleted,
			Description: "Dinner payment", Timestamp: now.Add(-1 * day),
		},
		{
			ID: "2", SenderID: "2", SenderName: "Jane Smith", RecipientID: "1", RecipientName: "John Doe",
			Amount: decimal.NewFromInt(500), Status: models.StatusCompleted,
			Description: "Rent share", Timestamp: now.Add(-2 * day),
		},
		{
			ID: "3", SenderID: "1", SenderName: "John Doe", RecipientID: "3", RecipientName: "Admin User",
			Amount: decimal.NewFromInt(100), Status: models.StatusCompleted,
			Description: "Test payment", Timestamp: now.Add(-5 * day),
		},
	}
}
