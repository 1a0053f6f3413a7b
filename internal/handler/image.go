package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/httputil"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/middleware"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/service"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/store"
)

type ImageHandler struct {
	generations *service.GenerationService
}

func NewImageHandler(generations *service.GenerationService) *ImageHandler {
	return &ImageHandler{generations: generations}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	ImageURL        string `json:"imageUrl"`
	RemainingTokens int    `json:"remainingTokens"`
	ImageID         string `json:"imageId"`
}

func (h *ImageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req generateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	result, err := h.generations.Generate(r.Context(), userID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientTokens):
			httputil.WriteError(w, http.StatusBadRequest, "Insufficient tokens")
		case errors.Is(err, service.ErrGenerationFailed):
			httputil.WriteError(w, http.StatusInternalServerError, "Image generation failed")
		default:
			log.Error().Err(err).Str("userId", userID).Msg("generation failed")
			httputil.WriteError(w, http.StatusInternalServerError, "Image generation failed")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, generateResponse{
		ImageURL:        result.DataURI,
		RemainingTokens: result.RemainingTokens,
		ImageID:         result.ImageID,
	})
}

func (h *ImageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	images, err := h.generations.History(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to list images")
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to list images")
		return
	}
	if images == nil {
		images = []model.Image{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"images": images})
}
