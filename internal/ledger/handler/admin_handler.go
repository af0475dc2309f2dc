package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/middleware"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/gin-gonic/gin"
)

// AdminQuerier defines the read-side operations used by AdminHandler.
type AdminQuerier interface {
	ListAllUsers(context.Context, cqrs.AdminUsersQuery) ([]models.UserView, error)
	ListAllTransactions(context.Context, cqrs.AdminTransactionsQuery) ([]models.TransactionView, error)
	Stats(context.Context) (*models.DashboardStats, error)
}

type ActivityQuerier interface {
	RecentActivity(context.Context, cqrs.RecentActivityQuery) ([]models.Activity, error)
}

// AdminHandler serves the administrative view. Routes must be guarded by
// middleware.AdminOnly.
type AdminHandler struct {
	queries  AdminQuerier
	activity ActivityQuerier
}

type ListUsersResponse struct {
	Users []models.UserView `json:"users"`
}

type ListAllTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

type ActivityResponse struct {
	Activity []models.Activity `json:"activity"`
}

func NewAdminHandler(queries AdminQuerier, activity ActivityQuerier) *AdminHandler {
	return &AdminHandler{queries: queries, activity: activity}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.queries.ListAllUsers(c.Request.Context(), cqrs.AdminUsersQuery{Search: c.Query("search")})
	if err != nil {
		respondWithLedgerError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, ListUsersResponse{Users: users})
}

func (h *AdminHandler) ListTransactions(c *gin.Context) {
	views, err := h.queries.ListAllTransactions(c.Request.Context(), cqrs.AdminTransactionsQuery{Search: c.Query("search")})
	if err != nil {
		respondWithLedgerError(c, "list transactions", err)
		return
	}
	c.JSON(http.StatusOK, ListAllTransactionsResponse{Transactions: views})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.queries.Stats(c.Request.Context())
	if err != nil {
		respondWithLedgerError(c, "load stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) RecentActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			middleware.RespondWithError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := h.activity.RecentActivity(c.Request.Context(), cqrs.RecentActivityQuery{Limit: limit})
	if err != nil {
		respondWithLedgerError(c, "load activity", err)
		return
	}
	c.JSON(http.StatusOK, ActivityResponse{Activity: entries})
}
