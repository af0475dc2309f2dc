package cqrs

import "github.com/shopspring/decimal"

type LoginCommand struct {
	Email    string
	Password string
}

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
}

type VerifyAccountCommand struct {
	Code string
}

type TopUpCommand struct {
	Amount decimal.Decimal
}

// TransferCommand moves Amount from the session user to the directory user
// whose email or phone equals Recipient.
type TransferCommand struct {
	Recipient   string
	Amount      decimal.Decimal
	Description string
}
