package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopmate/shopmate/internal/mailer"
	"github.com/shopmate/shopmate/internal/middleware"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/shopmate/shopmate/internal/service"
	"github.com/sirupsen/logrus"
)

// AuthService is the login flow: issue a code, trade it for a session.
type AuthService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*models.User, string, error)
}

// UserLister returns all user records.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

type AuthHandlers struct {
	auth   AuthService
	users  UserLister
	logger *logrus.Logger
}

func NewAuthHandlers(auth AuthService, users UserLister, logger *logrus.Logger) *AuthHandlers {
	return &AuthHandlers{
		auth:   auth,
		users:  users,
		logger: logger,
	}
}

type LoginRequest struct {
	Email string `json:"email"`
}

type LoginResponse struct {
	Message string `json:"message"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Login issues a one-time code to the submitted email.
// POST /api/user/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	err := h.auth.RequestCode(r.Context(), req.Email)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, LoginResponse{Message: "Otp sent to your mail"})
	case errors.Is(err, service.ErrInvalidEmail):
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, mailer.ErrTimeout):
		h.logger.WithError(err).Error("Code dispatch timed out")
		respondWithError(w, http.StatusGatewayTimeout, "OTP_DISPATCH_TIMEOUT", "Could not send the code in time")
	case errors.Is(err, service.ErrNotification):
		h.logger.WithError(err).Error("Code dispatch failed")
		respondWithError(w, http.StatusBadGateway, "OTP_DISPATCH_FAILED", "Could not send the code")
	default:
		h.logger.WithError(err).Error("Failed to issue login code")
		respondWithError(w, http.StatusInternalServerError, "OTP_ISSUE_FAILED", "Failed to issue login code")
	}
}

// Verify trades a valid code for a session token. Unknown email, wrong
// code and expired code all answer with the same INVALID_CODE so the
// wire does not reveal which one it was.
// POST /api/user/verify
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, token, err := h.auth.VerifyCode(r.Context(), req.Email, req.OTP)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, VerifyResponse{
			Message: "User logged in",
			Token:   token,
			User:    user,
		})
	case errors.Is(err, service.ErrInvalidEmail):
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrCodeExpired):
		h.logger.WithError(err).WithField("email", req.Email).Info("Code verification rejected")
		respondWithError(w, http.StatusUnauthorized, "INVALID_CODE", "Wrong otp")
	default:
		h.logger.WithError(err).Error("Failed to verify login code")
		respondWithError(w, http.StatusInternalServerError, "OTP_VERIFY_FAILED", "Failed to verify login code")
	}
}

// Me returns the authenticated user's record.
// GET /api/user/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Please login")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

type ListUsersResponse struct {
	Success bool          `json:"success"`
	Users   []models.User `json:"users"`
}

// ListUsers returns every user record. Admin only; the role gate runs
// in middleware.
// GET /api/user/all
func (h *AuthHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		respondWithError(w, http.StatusInternalServerError, "USER_LIST_FAILED", "Failed to list users")
		return
	}

	respondWithJSON(w, http.StatusOK, ListUsersResponse{
		Success: true,
		Users:   users,
	})
}
