package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/httputil"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/middleware"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/service"
)

type UserHandler struct {
	accounts *service.AccountService
}

func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.accounts.Profile(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to load profile")
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]model.PublicProfile{"user": user.Public()})
}
