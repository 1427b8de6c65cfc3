package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"vending-api/internal/middleware"
	"vending-api/internal/models"
	"vending-api/internal/services"
)

type AuthHandler struct {
	userService *services.UserService
	authService *services.AuthService
	logger      zerolog.Logger
}

func NewAuthHandler(userService *services.UserService, authService *services.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), &req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.issueToken(w, http.StatusOK, user)
}

// Refresh issues a new token for the authenticated actor.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if err := services.RequireActor(actor); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), actor.ID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.issueToken(w, http.StatusOK, user)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, code int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", user.ID).Msg("Token generation failed")
		respondWithError(w, http.StatusInternalServerError, "token_generation_failed", "Failed to generate token")
		return
	}

	respondWithJSON(w, code, models.AuthResponse{
		User:  user,
		Token: token,
	})
}
