package repository

import (
	"context"
	"sync"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
)

// MemoryStore keeps the directory and log in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	users        []models.User
	transactions []models.Transaction
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewDemoMemoryStore returns a store holding the demo users and transactions.
func NewDemoMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        DemoUsers(),
		transactions: DemoTransactions(time.Now().UTC()),
	}
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.User(nil), m.users...), nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		u := m.users[i]
		return &u, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == identifier || (u.Phone != "" && u.Phone == identifier) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email || u.ID == user.ID {
			return ErrAlreadyExists
		}
	}
	m.users = append(m.users, *user)
	return nil
}

func (m *MemoryStore) SetVerified(ctx context.Context, id string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	m.users[i].IsVerified = verified
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Transaction(nil), m.transactions...), nil
}

func (m *MemoryStore) ApplyTopUp(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(tx.RecipientID)
	if i < 0 {
		return ErrNotFound
	}
	m.users[i].Balance = m.users[i].Balance.Add(tx.Amount)
	m.prepend(tx)
	return nil
}

func (m *MemoryStore) ApplyTransfer(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to := m.indexOf(tx.SenderID), m.indexOf(tx.RecipientID)
	if from < 0 || to < 0 {
		return ErrNotFound
	}
	if m.users[from].Balance.LessThan(tx.Amount) {
		return ErrInsufficientFunds
	}
	m.users[from].Balance = m.users[from].Balance.Sub(tx.Amount)
	m.users[to].Balance = m.users[to].Balance.Add(tx.Amount)
	m.prepend(tx)
	return nil
}

func (m *MemoryStore) prepend(tx *models.Transaction) {
	m.transactions = append([]models.Transaction{*tx}, m.transactions...)
}

func (m *MemoryStore) indexOf(id string) int {
	for i := range m.users {
		if m.users[i].ID == id {
			return i
		}
	}
	return -1
}
