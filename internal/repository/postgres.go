package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// seq preserves insertion order. Directory order is seq ascending; the log
// is read seq descending so the newest entry comes first.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	seq           BIGSERIAL UNIQUE,
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL DEFAULT '',
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	balance       NUMERIC(20, 2) NOT NULL DEFAULT 0,
	is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
	seq            BIGSERIAL UNIQUE,
	id             TEXT PRIMARY KEY,
	sender_id      TEXT NOT NULL,
	sender_name    TEXT NOT NULL,
	recipient_id   TEXT NOT NULL REFERENCES users (id),
	recipient_name TEXT NOT NULL,
	amount         NUMERIC(20, 2) NOT NULL CHECK (amount > 0),
	status         TEXT NOT NULL,
	description    TEXT,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions (sender_id);
CREATE INDEX IF NOT EXISTS idx_transactions_recipient ON transactions (recipient_id);
`

const userColumns = `id, name, email, phone, is_admin, balance, is_verified, password_hash, created_at`

const transactionColumns = `id, sender_id, sender_name, recipient_id, recipient_name, amount, status, description, created_at`

// PostgresStore implements Store on PostgreSQL through lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	store := NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedDemoData inserts the demo users and transactions into an empty
// directory. It is a no-op once any user exists.
func (s *PostgresStore) SeedDemoData(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, u := range DemoUsers() {
		if err := insertUser(ctx, tx, &u); err != nil {
			return err
		}
	}
	// Oldest first so the newest seed entry gets the highest seq.
	seeds := DemoTransactions(time.Now().UTC())
	for i := len(seeds) - 1; i >= 0; i-- {
		if err := insertTransaction(ctx, tx, &seeds[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) FindByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 OR (phone <> '' AND phone = $1)
		ORDER BY seq
		LIMIT 1
	`
	return scanUser(s.db.QueryRowContext(ctx, query, identifier))
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return insertUser(ctx, s.db, user)
}

func (s *PostgresStore) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_verified = $1 WHERE id = $2`, verified, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var description sql.NullString
		if err := rows.Scan(
			&t.ID, &t.SenderID, &t.SenderName, &t.RecipientID, &t.RecipientName,
			&t.Amount, &t.Status, &description, &t.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Description = description.String
		t.Timestamp = t.Timestamp.UTC()
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *PostgresStore) ApplyTopUp(ctx context.Context, t *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin top-up: %w", err)
	}
	defer tx.Rollback()

	if err := adjustBalance(ctx, tx, t.RecipientID, t.Amount); err != nil {
		return err
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) ApplyTransfer(ctx context.Context, t *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback()

	// Lock both rows in id order so concurrent transfers cannot deadlock.
	rows, err := tx.QueryContext(ctx,
		`SELECT id, balance FROM users WHERE id IN ($1, $2) ORDER BY id FOR UPDATE`,
		t.SenderID, t.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	balances := make(map[string]decimal.Decimal, 2)
	for rows.Next() {
		var id string
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan account: %w", err)
		}
		balances[id] = balance
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}

	senderBalance, ok := balances[t.SenderID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := balances[t.RecipientID]; !ok {
		return ErrNotFound
	}
	if senderBalance.LessThan(t.Amount) {
		return ErrInsufficientFunds
	}

	if err := adjustBalance(ctx, tx, t.SenderID, t.Amount.Neg()); err != nil {
		return err
	}
	if err := adjustBalance(ctx, tx, t.RecipientID, t.Amount); err != nil {
		return err
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.IsAdmin,
		&u.Balance, &u.IsVerified, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func insertUser(ctx context.Context, db execer, u *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Phone, u.IsAdmin,
		u.Balance, u.IsVerified, u.PasswordHash, u.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, db execer, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := db.ExecContext(ctx, query,
		t.ID, t.SenderID, t.SenderName, t.RecipientID, t.RecipientName,
		t.Amount, t.Status, nullString(t.Description), t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func adjustBalance(ctx context.Context, db execer, userID string, delta decimal.Decimal) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET balance = balance + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
