package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
)

// Linker records the wallet connected by Connector on the session, so it
// survives across requests until disconnect or logout.
type Linker struct {
	connector *Connector
	sessions  session.Store
	now       func() time.Time
}

func NewLinker(connector *Connector, sessions session.Store) *Linker {
	return &Linker{connector: connector, sessions: sessions, now: time.Now}
}

// Connect links provider to the session in ctx, replacing any earlier link.
func (l *Linker) Connect(ctx context.Context, provider string) (*Connection, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := l.connector.Connect(ctx, provider)
	if err != nil {
		return nil, err
	}

	updated := *sess
	updated.Wallet = &models.WalletLink{Provider: conn.Provider, Address: conn.Address, ConnectedAt: l.now().UTC()}
	if err := l.sessions.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to record wallet: %w", err)
	}
	return conn, nil
}

// Disconnect forgets the session's wallet. Disconnecting with no wallet
// linked is not an error.
func (l *Linker) Disconnect(ctx context.Context) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}
	if sess.Wallet == nil {
		return nil
	}
	updated := *sess
	updated.Wallet = nil
	if err := l.sessions.Update(ctx, &updated); err != nil {
		return fmt.Errorf("failed to clear wallet: %w", err)
	}
	return nil
}
