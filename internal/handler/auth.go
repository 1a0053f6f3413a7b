package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/httputil"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/service"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/store"
)

type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string              `json:"token"`
	User  model.PublicProfile `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" || req.Username == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Email, password and username are required")
		return
	}

	result, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			httputil.WriteError(w, http.StatusBadRequest, "User already exists")
			return
		}
		log.Error().Err(err).Msg("registration failed")
		httputil.WriteError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  result.User.Public(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httputil.WriteError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		log.Error().Err(err).Msg("login failed")
		httputil.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  result.User.Public(),
	})
}
