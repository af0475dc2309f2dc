package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/repository"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/utils"
	"github.com/shopspring/decimal"
)

// ErrInvalidDirection is returned for a direction filter other than all,
// sent or received.
var ErrInvalidDirection = errors.New("direction must be one of all, sent, received")

const directionAll = "all"

// LedgerQueryService projects the transaction log and directory. Results
// are recomputed on every call.
type LedgerQueryService struct {
	store repository.Store
}

func NewLedgerQueryService(store repository.Store) *LedgerQueryService {
	return &LedgerQueryService{store: store}
}

// Balance returns the session user's current balance.
func (s *LedgerQueryService) Balance(ctx context.Context) (decimal.Decimal, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	user, err := s.store.GetUser(ctx, sess.User.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return sess.User.Balance, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load balance: %w", err)
	}
	return user.Balance, nil
}

// GetTransactions returns the session user's transactions, newest first.
func (s *LedgerQueryService) GetTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	direction := strings.ToLower(q.Direction)
	switch direction {
	case "", directionAll, models.DirectionSent, models.DirectionReceived:
	default:
		return nil, ErrInvalidDirection
	}

	log, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	userID := sess.User.ID
	views := make([]models.TransactionView, 0)
	for i := range log {
		t := &log[i]
		if !t.Involves(userID) || !matchesTransaction(t, q.Search) {
			continue
		}
		view := models.ToTransactionView(t, userID)
		if direction == models.DirectionSent || direction == models.DirectionReceived {
			if view.Direction != direction {
				continue
			}
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Timestamp.After(views[j].Timestamp)
	})
	return views, nil
}

// GroupByDay buckets views by UTC calendar day, newest day first. Order
// within a day is preserved.
func GroupByDay(views []models.TransactionView) []models.TransactionGroup {
	index := make(map[string]int)
	var groups []models.TransactionGroup
	for _, v := range views {
		day := v.Timestamp.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, models.TransactionGroup{Date: day})
		}
		groups[i].Transactions = append(groups[i].Transactions, v)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})
	return groups
}

// ListAllTransactions returns the whole log in log order. Access control is
// the caller's responsibility.
func (s *LedgerQueryService) ListAllTransactions(ctx context.Context, q cqrs.AdminTransactionsQuery) ([]models.TransactionView, error) {
	log, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	views := make([]models.TransactionView, 0, len(log))
	for i := range log {
		if matchesTransaction(&log[i], q.Search) {
			views = append(views, models.ToTransactionView(&log[i], ""))
		}
	}
	return views, nil
}

// ListAllUsers returns the directory in directory order.
func (s *LedgerQueryService) ListAllUsers(ctx context.Context, q cqrs.AdminUsersQuery) ([]models.UserView, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	views := make([]models.UserView, 0, len(users))
	for i := range users {
		u := &users[i]
		if q.Search == "" || utils.ContainsFold(u.Name, q.Search) || utils.ContainsFold(u.Email, q.Search) {
			views = append(views, *models.ToUserView(u))
		}
	}
	return views, nil
}

func (s *LedgerQueryService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	log, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	stats := &models.DashboardStats{
		TotalUsers:        len(users),
		TotalTransactions: len(log),
		TotalVolume:       decimal.Zero,
	}
	for _, u := range users {
		if u.IsVerified {
			stats.VerifiedUsers++
		}
	}
	for _, t := range log {
		stats.TotalVolume = stats.TotalVolume.Add(t.Amount)
	}
	return stats, nil
}

func matchesTransaction(t *models.Transaction, search string) bool {
	if search == "" {
		return true
	}
	return utils.ContainsFold(t.SenderName, search) ||
		utils.ContainsFold(t.RecipientName, search) ||
		utils.ContainsFold(t.Description, search)
}
