package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/connector"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/ledger/command"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/ledger/query"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/middleware"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerCommander defines the write-side operations used by WalletHandler.
type LedgerCommander interface {
	TopUp(context.Context, cqrs.TopUpCommand) (*models.Transaction, error)
	Transfer(context.Context, cqrs.TransferCommand) (*models.Transaction, error)
}

// LedgerQuerier defines the read-side operations used by WalletHandler.
type LedgerQuerier interface {
	Balance(context.Context) (decimal.Decimal, error)
	GetTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

// WalletConnector links an external wallet to the session and unlinks it.
type WalletConnector interface {
	Connect(ctx context.Context, provider string) (*connector.Connection, error)
	Disconnect(ctx context.Context) error
}

type WalletHandler struct {
	commands  LedgerCommander
	queries   LedgerQuerier
	connector WalletConnector
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	Recipient   string          `json:"recipient" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=140"`
}

type ConnectWalletRequest struct {
	Provider string `json:"provider" validate:"required"`
}

type WalletResponse struct {
	Balance      decimal.Decimal          `json:"balance"`
	Transactions []models.TransactionView `json:"transactions"`
	Wallet       *models.WalletLink       `json:"wallet,omitempty"`
}

type TransactionResponse struct {
	Transaction models.TransactionView `json:"transaction"`
	Balance     decimal.Decimal        `json:"balance"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionView  `json:"transactions"`
	Groups       []models.TransactionGroup `json:"groups,omitempty"`
}

func NewWalletHandler(commands LedgerCommander, queries LedgerQuerier, connector WalletConnector) *WalletHandler {
	return &WalletHandler{commands: commands, queries: queries, connector: connector}
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	ctx := c.Request.Context()
	balance, err := h.queries.Balance(ctx)
	if err != nil {
		respondWithLedgerError(c, "load wallet", err)
		return
	}
	transactions, err := h.queries.GetTransactions(ctx, cqrs.ListTransactionsQuery{})
	if err != nil {
		respondWithLedgerError(c, "load wallet", err)
		return
	}
	if transactions == nil {
		transactions = []models.TransactionView{}
	}
	resp := WalletResponse{Balance: balance, Transactions: transactions}
	if sess, ok := session.FromContext(ctx); ok {
		resp.Wallet = sess.Wallet
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.commands.TopUp(c.Request.Context(), cqrs.TopUpCommand{Amount: req.Amount})
	if err != nil {
		respondWithLedgerError(c, "top up", err)
		return
	}
	h.respondWithTransaction(c, tx)
}

func (h *WalletHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	tx, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		Recipient:   req.Recipient,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondWithLedgerError(c, "transfer", err)
		return
	}
	h.respondWithTransaction(c, tx)
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	views, err := h.queries.GetTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		Search:    c.Query("search"),
		Direction: c.Query("direction"),
	})
	if err != nil {
		respondWithLedgerError(c, "list transactions", err)
		return
	}
	if views == nil {
		views = []models.TransactionView{}
	}
	resp := ListTransactionsResponse{Transactions: views}
	if c.Query("group") == "day" {
		resp.Groups = query.GroupByDay(views)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) ConnectWallet(c *gin.Context) {
	var req ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	conn, err := h.connector.Connect(c.Request.Context(), req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, connector.ErrUnknownProvider):
			middleware.RespondWithError(c, http.StatusBadRequest, "Unknown wallet provider")
		case errors.Is(err, connector.ErrProviderNotInstalled):
			middleware.RespondWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, connector.ErrConnectionFailed):
			log.Printf("Wallet connection failed: %v", err)
			middleware.RespondWithError(c, http.StatusBadGateway, "Failed to connect wallet")
		default:
			respondWithLedgerError(c, "connect wallet", err)
		}
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *WalletHandler) DisconnectWallet(c *gin.Context) {
	if err := h.connector.Disconnect(c.Request.Context()); err != nil {
		respondWithLedgerError(c, "disconnect wallet", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WalletHandler) respondWithTransaction(c *gin.Context, tx *models.Transaction) {
	ctx := c.Request.Context()
	viewer := ""
	if s, ok := session.FromContext(ctx); ok {
		viewer = s.User.ID
	}
	balance, err := h.queries.Balance(ctx)
	if err != nil {
		log.Printf("Failed to load balance after %s: %v", tx.ID, err)
	}
	c.JSON(http.StatusCreated, TransactionResponse{
		Transaction: models.ToTransactionView(tx, viewer),
		Balance:     balance,
	})
}

func respondWithLedgerError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not logged in")
	case errors.Is(err, command.ErrInvalidAmount):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Amount must be greater than 0 with at most 2 decimal places")
	case errors.Is(err, command.ErrInsufficientFunds):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, command.ErrSelfTransfer):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "You cannot transfer money to yourself")
	case errors.Is(err, command.ErrRecipientNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Recipient not found")
	case errors.Is(err, query.ErrInvalidDirection):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.RespondWithError(c, http.StatusRequestTimeout, "Request cancelled")
	default:
		log.Printf("Failed to %s: %v", action, err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}
