package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction directions relative to the viewing user.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// UserView is the read projection of a user. It never exposes PasswordHash.
type UserView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone,omitempty"`
	IsAdmin    bool            `json:"isAdmin"`
	Balance    decimal.Decimal `json:"balance"`
	IsVerified bool            `json:"isVerified"`
	CreatedAt  time.Time       `json:"createdTimestamp"`
}

// TransactionView is a transaction as seen by one user. Direction is empty
// for administrative listings.
type TransactionView struct {
	ID            string          `json:"id"`
	SenderID      string          `json:"senderId"`
	SenderName    string          `json:"senderName"`
	RecipientID   string          `json:"recipientId"`
	RecipientName string          `json:"recipientName"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	Direction     string          `json:"direction,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TransactionGroup buckets transactions by UTC calendar day (YYYY-MM-DD).
type TransactionGroup struct {
	Date         string            `json:"date"`
	Transactions []TransactionView `json:"transactions"`
}

// DashboardStats backs the admin dashboard.
type DashboardStats struct {
	TotalUsers        int             `json:"totalUsers"`
	VerifiedUsers     int             `json:"verifiedUsers"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalVolume       decimal.Decimal `json:"totalVolume"`
}

func ToUserView(u *User) *UserView {
	return &UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		IsAdmin:    u.IsAdmin,
		Balance:    u.Balance,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// ToTransactionView projects t for viewerID. An empty viewerID leaves
// Direction unset.
func ToTransactionView(t *Transaction, viewerID string) TransactionView {
	view := TransactionView{
		ID:            t.ID,
		SenderID:      t.SenderID,
		SenderName:    t.SenderName,
		RecipientID:   t.RecipientID,
		RecipientName: t.RecipientName,
		Amount:        t.Amount,
		Status:        t.Status,
		Description:   t.Description,
		Timestamp:     t.Timestamp,
	}
	switch viewerID {
	case "":
	case t.SenderID:
		view.Direction = DirectionSent
	case t.RecipientID:
		view.Direction = DirectionReceived
	}
	return view
}
