package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/domain"
	"marketplace-service/internal/store"
)

// UserRegisterInput defines the expected input for registering a user.
type UserRegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=buyer seller admin"`
}

// LoginInput defines the expected input for obtaining a token pair.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput defines the expected input for refreshing an access token.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is the payload returned by the token endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

func (h *HTTPHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var input UserRegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	role := domain.Role(input.Role)
	if input.Role == "" {
		role = domain.RoleBuyer
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		h.logger.Error("RegisterUser failed to hash password", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user := &domain.User{
		Email:          input.Email,
		HashedPassword: hashedPassword,
		Role:           role,
	}

	createdUser, err := h.userStore.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			h.respondWithError(w, http.StatusConflict, store.ErrEmailExists.Error())
			return
		}
		h.logger.Error("RegisterUser store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, createdUser)
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, err := h.userStore.GetUserByEmail(r.Context(), input.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondWithError(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		h.logger.Error("Login store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if !auth.VerifyPassword(user.HashedPassword, input.Password) {
		h.respondWithError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		h.logger.Error("Login failed to issue access token", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(user)
	if err != nil {
		h.logger.Error("Login failed to issue refresh token", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.respondWithJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

func (h *HTTPHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var input RefreshInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	claims, err := h.tokens.Parse(input.RefreshToken)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh {
		h.respondWithError(w, http.StatusUnauthorized, "Could not refresh token")
		return
	}

	// The refresh token must still resolve to an active account.
	user, err := h.userStore.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondWithError(w, http.StatusUnauthorized, "Could not refresh token")
			return
		}
		h.logger.Error("RefreshToken store operation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		h.logger.Error("RefreshToken failed to issue access token", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	h.respondWithJSON(w, http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}
