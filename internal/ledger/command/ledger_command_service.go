package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/latency"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/repository"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/events"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/utils"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("amount must be greater than 0 with at most 2 decimal places")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfTransfer      = errors.New("cannot transfer money to yourself")
)

const (
	defaultTransferDescription = "Money transfer"
	topUpDescription           = "Wallet top-up"

	// centPlaces matches the NUMERIC(20, 2) columns of the Postgres store.
	centPlaces = 2
)

// LedgerCommandService records top-ups and transfers for the session user.
type LedgerCommandService struct {
	store     repository.Store
	sessions  session.Store
	latency   *latency.Simulator
	publisher events.Emitter
	now       func() time.Time
}

func NewLedgerCommandService(
	store repository.Store,
	sessions session.Store,
	delay *latency.Simulator,
	publisher events.Emitter,
) *LedgerCommandService {
	return &LedgerCommandService{
		store:     store,
		sessions:  sessions,
		latency:   delay,
		publisher: publisher,
		now:       time.Now,
	}
}

// TopUp credits the session user from the system sender.
func (s *LedgerCommandService) TopUp(ctx context.Context, cmd cqrs.TopUpCommand) (*models.Transaction, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx); err != nil {
		return nil, err
	}
	if !validAmount(cmd.Amount) {
		return nil, ErrInvalidAmount
	}

	now := s.now().UTC()
	tx := &models.Transaction{
		ID:            utils.GenerateTransactionID(now),
		SenderID:      models.SystemSenderID,
		SenderName:    models.SystemSenderName,
		RecipientID:   sess.User.ID,
		RecipientName: sess.User.Name,
		Amount:        cmd.Amount,
		Status:        models.StatusCompleted,
		Description:   topUpDescription,
		Timestamp:     now,
	}
	if err := s.store.ApplyTopUp(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to apply top-up: %w", err)
	}

	updated := s.refreshSession(ctx, sess)
	s.publishTransaction(ctx, tx)
	s.publishBalance(ctx, &updated.User, tx.Amount)
	return tx, nil
}

// Transfer moves money from the session user to the first directory user
// whose email or phone equals cmd.Recipient.
func (s *LedgerCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Transaction, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.latency.Wait(ctx); err != nil {
		return nil, err
	}
	if !validAmount(cmd.Amount) {
		return nil, ErrInvalidAmount
	}
	sender, err := s.currentUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	if cmd.Amount.GreaterThan(sender.Balance) {
		return nil, ErrInsufficientFunds
	}

	recipient, err := s.store.FindByEmailOrPhone(ctx, cmd.Recipient)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if recipient.ID == sender.ID {
		return nil, ErrSelfTransfer
	}

	description := cmd.Description
	if description == "" {
		description = defaultTransferDescription
	}
	now := s.now().UTC()
	tx := &models.Transaction{
		ID:            utils.GenerateTransactionID(now),
		SenderID:      sender.ID,
		SenderName:    sender.Name,
		RecipientID:   recipient.ID,
		RecipientName: recipient.Name,
		Amount:        cmd.Amount,
		Status:        models.StatusCompleted,
		Description:   description,
		Timestamp:     now,
	}
	err = s.store.ApplyTransfer(ctx, tx)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		s.refreshSession(ctx, sess)
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply transfer: %w", err)
	}

	updated := s.refreshSession(ctx, sess)
	s.publishTransaction(ctx, tx)
	s.publishBalance(ctx, &updated.User, tx.Amount.Neg())
	if credited, err := s.store.GetUser(ctx, recipient.ID); err == nil {
		s.publishBalance(ctx, credited, tx.Amount)
	}
	return tx, nil
}

// currentUser returns the directory record of the session user, which
// reflects credits received since the session was stored.
func (s *LedgerCommandService) currentUser(ctx context.Context, sess *session.Session) (*models.User, error) {
	user, err := s.store.GetUser(ctx, sess.User.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &sess.User, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}
	return user, nil
}

// refreshSession reloads the session user from the directory and persists
// it. The mutation has already happened, so failures are only logged.
// validAmount accepts positive amounts in whole cents.
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(centPlaces))
}

func (s *LedgerCommandService) refreshSession(ctx context.Context, sess *session.Session) *session.Session {
	updated := *sess
	user, err := s.store.GetUser(ctx, sess.User.ID)
	if err != nil {
		log.Printf("Failed to reload user %s for session %s: %v", sess.User.ID, sess.ID, err)
		return &updated
	}
	updated.User = *user
	err = s.sessions.Update(ctx, &updated)
	switch {
	case errors.Is(err, session.ErrNoSession):
		log.Printf("Session %s ended before refresh, not restoring it", sess.ID)
	case err != nil:
		log.Printf("Failed to persist session %s: %v", sess.ID, err)
	}
	return &updated
}

func (s *LedgerCommandService) publishTransaction(ctx context.Context, tx *models.Transaction) {
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: tx.ID,
		SenderID:      tx.SenderID,
		SenderName:    tx.SenderName,
		RecipientID:   tx.RecipientID,
		RecipientName: tx.RecipientName,
		Amount:        tx.Amount,
		Description:   tx.Description,
	}); err != nil {
		log.Printf("Failed to publish transaction.created event: %v", err)
	}
}

func (s *LedgerCommandService) publishBalance(ctx context.Context, user *models.User, change decimal.Decimal) {
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		UserID:     user.ID,
		NewBalance: user.Balance,
		Change:     change,
	}); err != nil {
		log.Printf("Failed to publish balance.updated event: %v", err)
	}
}
