package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/identity/command"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/middleware"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
)

// IdentityCommander defines the write-side operations used by IdentityHandler.
type IdentityCommander interface {
	Login(context.Context, cqrs.LoginCommand) (*session.Session, error)
	Register(context.Context, cqrs.RegisterCommand) (*session.Session, error)
	Logout(context.Context) error
	VerifyAccount(context.Context, cqrs.VerifyAccountCommand) (*session.Session, error)
}

// IdentityQuerier defines the read-side operations used by IdentityHandler.
type IdentityQuerier interface {
	CurrentUser(context.Context) (*models.UserView, error)
	IsAdmin(context.Context) bool
}

// TokenIssuer signs the bearer token handed out for a new session.
type TokenIssuer interface {
	Generate(*session.Session) (string, error)
}

type IdentityHandler struct {
	commands IdentityCommander
	queries  IdentityQuerier
	tokens   TokenIssuer
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyRequest struct {
	Code string `json:"code" validate:"required,numeric"`
}

type AuthResponse struct {
	Token string           `json:"token"`
	User  *models.UserView `json:"user"`
}

type MeResponse struct {
	User    *models.UserView `json:"user"`
	IsAdmin bool             `json:"isAdmin"`
}

func NewIdentityHandler(commands IdentityCommander, queries IdentityQuerier, tokens TokenIssuer) *IdentityHandler {
	return &IdentityHandler{commands: commands, queries: queries, tokens: tokens}
}

func (h *IdentityHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	sess, err := h.commands.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, command.ErrInvalidCredentials) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondWithInternalError(c, "log in", err)
		return
	}
	h.respondWithSession(c, http.StatusOK, sess)
}

func (h *IdentityHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	sess, err := h.commands.Register(c.Request.Context(), cqrs.RegisterCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, command.ErrEmailInUse) {
			middleware.RespondWithError(c, http.StatusConflict, "Email already in use")
			return
		}
		respondWithInternalError(c, "register", err)
		return
	}
	h.respondWithSession(c, http.StatusCreated, sess)
}

func (h *IdentityHandler) Logout(c *gin.Context) {
	if err := h.commands.Logout(c.Request.Context()); err != nil {
		respondWithInternalError(c, "log out", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *IdentityHandler) VerifyAccount(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	sess, err := h.commands.VerifyAccount(c.Request.Context(), cqrs.VerifyAccountCommand{Code: req.Code})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoSession):
			middleware.RespondWithError(c, http.StatusUnauthorized, "Not logged in")
		case errors.Is(err, command.ErrInvalidVerificationCode):
			middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Invalid verification code")
		default:
			respondWithInternalError(c, "verify account", err)
		}
		return
	}
	c.JSON(http.StatusOK, models.ToUserView(&sess.User))
}

func (h *IdentityHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.queries.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			middleware.RespondWithError(c, http.StatusUnauthorized, "Not logged in")
			return
		}
		respondWithInternalError(c, "load user", err)
		return
	}
	c.JSON(http.StatusOK, MeResponse{User: user, IsAdmin: h.queries.IsAdmin(ctx)})
}

func (h *IdentityHandler) respondWithSession(c *gin.Context, status int, sess *session.Session) {
	token, err := h.tokens.Generate(sess)
	if err != nil {
		respondWithInternalError(c, "issue token", err)
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: models.ToUserView(&sess.User)})
}

func respondWithInternalError(c *gin.Context, action string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		middleware.RespondWithError(c, http.StatusRequestTimeout, "Request cancelled")
		return
	}
	log.Printf("Failed to %s: %v", action, err)
	middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to "+action)
}
