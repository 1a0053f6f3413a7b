package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/store"
)

var ErrGenerationFailed = errors.New("image generation failed")

const generationCost = 1

// ImageProvider is the external generation boundary. The real
// implementation lives in internal/provider.
type ImageProvider interface {
	TextToImage(ctx context.Context, prompt string) ([]byte, error)
}

// GenerationResult is what a successful generation hands back to the
// handler: the transport-encoded image, the record id, and the balance
// left after the debit.
type GenerationResult struct {
	DataURI         string
	ImageID         string
	RemainingTokens int
}

type GenerationService struct {
	users    store.UserStore
	images   store.ImageStore
	provider ImageProvider
}

func NewGenerationService(users store.UserStore, images store.ImageStore, provider ImageProvider) *GenerationService {
	return &GenerationService{
		users:    users,
		images:   images,
		provider: provider,
	}
}

// Generate runs one prompt through the provider, charges the account and
// records the result. The balance is checked up front so an exhausted
// account never reaches the provider, and charged atomically after the
// provider succeeds, so a failed generation costs nothing and concurrent
// requests cannot overdraw the account.
func (s *GenerationService) Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Tokens < generationCost {
		return nil, store.ErrInsufficientTokens
	}

	imageBytes, err := s.provider.TextToImage(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("provider call failed")
		return nil, ErrGenerationFailed
	}

	remaining, err := s.users.Debit(ctx, userID, generationCost)
	if err != nil {
		return nil, err
	}

	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)

	img, err := s.images.Create(ctx, model.CreateImageParams{
		UserID:  userID,
		Prompt:  prompt,
		DataURI: dataURI,
	})
	if err != nil {
		return nil, fmt.Errorf("create image record: %w", err)
	}

	log.Info().
		Str("userId", userID).
		Str("imageId", img.ID).
		Int("remainingTokens", remaining).
		Msg("image generated")

	return &GenerationResult{
		DataURI:         dataURI,
		ImageID:         img.ID,
		RemainingTokens: remaining,
	}, nil
}

// History returns the caller's past generations, newest first.
func (s *GenerationService) History(ctx context.Context, userID string) ([]model.Image, error) {
	return s.images.FindByUserID(ctx, userID)
}
