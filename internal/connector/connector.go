// Package connector links an external crypto wallet to the session user.
//
// Providers are consumed capabilities: MetaMask answers an account request,
// Phantom returns a public key, and WalletConnect is simulated with a
// fabricated address.
package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/latency"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/utils"
)

// Providers
const (
	MetaMask      = "metamask"
	Phantom       = "phantom"
	WalletConnect = "walletconnect"
)

var (
	ErrUnknownProvider      = errors.New("unknown wallet provider")
	ErrProviderNotInstalled = errors.New("wallet provider not installed")
	ErrConnectionFailed     = errors.New("wallet connection failed")
)

var displayNames = map[string]string{
	MetaMask:      "MetaMask",
	Phantom:       "Phantom",
	WalletConnect: "WalletConnect",
}

// AccountRequester is an Ethereum provider: request({method, params})
// resolving to a list of account addresses.
type AccountRequester interface {
	Request(ctx context.Context, method string, params []any) ([]string, error)
}

// KeyConnector is a Solana provider whose connect() resolves to a public key.
type KeyConnector interface {
	Connect(ctx context.Context) (string, error)
}

type Connection struct {
	Provider string `json:"provider"`
	Address  string `json:"address"`
	Message  string `json:"message"`
}

// Connector dispatches to the configured providers. A nil provider is
// reported as not installed.
type Connector struct {
	ethereum AccountRequester
	solana   KeyConnector
	latency  *latency.Simulator
}

func New(ethereum AccountRequester, solana KeyConnector, delay *latency.Simulator) *Connector {
	return &Connector{ethereum: ethereum, solana: solana, latency: delay}
}

// Connect links the named provider. There is no retry.
func (c *Connector) Connect(ctx context.Context, provider string) (*Connection, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	name, ok := displayNames[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	var address string
	var err error
	switch provider {
	case MetaMask:
		address, err = c.connectMetaMask(ctx)
	case Phantom:
		address, err = c.connectPhantom(ctx)
	case WalletConnect:
		address, err = c.connectWalletConnect(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &Connection{
		Provider: provider,
		Address:  address,
		Message:  fmt.Sprintf("%s connected: %s", name, utils.ShortenAddress(address)),
	}, nil
}

func (c *Connector) connectMetaMask(ctx context.Context) (string, error) {
	if c.ethereum == nil {
		return "", fmt.Errorf("%w: install MetaMask to connect", ErrProviderNotInstalled)
	}
	accounts, err := c.ethereum.Request(ctx, "eth_requestAccounts", nil)
	if err != nil {
		return "", fmt.Errorf("%w: MetaMask: %v", ErrConnectionFailed, err)
	}
	if len(accounts) == 0 || accounts[0] == "" {
		return "", fmt.Errorf("%w: MetaMask returned no accounts", ErrConnectionFailed)
	}
	return accounts[0], nil
}

func (c *Connector) connectPhantom(ctx context.Context) (string, error) {
	if c.solana == nil {
		return "", fmt.Errorf("%w: install Phantom to connect", ErrProviderNotInstalled)
	}
	key, err := c.solana.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: Phantom: %v", ErrConnectionFailed, err)
	}
	if key == "" {
		return "", fmt.Errorf("%w: Phantom returned no public key", ErrConnectionFailed)
	}
	return key, nil
}

func (c *Connector) connectWalletConnect(ctx context.Context) (string, error) {
	if err := c.latency.Wait(ctx); err != nil {
		return "", err
	}
	return utils.GenerateHexAddress(), nil
}
