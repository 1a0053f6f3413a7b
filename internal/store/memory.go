package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
)

// MemoryUserStore keeps accounts for the lifetime of the process. All
// operations, including the uniqueness check in Create and the balance
// check in Debit, happen under a single lock.
type MemoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	email := normalizeEmail(params.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, ErrEmailTaken
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Tokens:       params.Tokens,
		CreatedAt:    time.Now().UTC(),
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID

	return copyUser(user), nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(s.byID[id]), nil
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryUserStore) Debit(ctx context.Context, id string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	if user.Tokens < amount {
		return user.Tokens, ErrInsufficientTokens
	}
	user.Tokens -= amount
	return user.Tokens, nil
}

func (s *MemoryUserStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

// MemoryImageStore is the process-lifetime generation log.
type MemoryImageStore struct {
	mu     sync.Mutex
	byID   map[string]*model.Image
	byUser map[string][]string
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{
		byID:   make(map[string]*model.Image),
		byUser: make(map[string][]string),
	}
}

func (s *MemoryImageStore) Create(ctx context.Context, params model.CreateImageParams) (*model.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := &model.Image{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		Prompt:    params.Prompt,
		DataURI:   params.DataURI,
		CreatedAt: time.Now().UTC(),
	}
	s.byID[img.ID] = img
	s.byUser[img.UserID] = append(s.byUser[img.UserID], img.ID)

	return copyImage(img), nil
}

func (s *MemoryImageStore) FindByID(ctx context.Context, id string) (*model.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyImage(img), nil
}

func (s *MemoryImageStore) FindByUserID(ctx context.Context, userID string) ([]model.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byUser[userID]
	images := make([]model.Image, 0, len(ids))
	for _, id := range ids {
		images = append(images, *s.byID[id])
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})
	return images, nil
}

func (s *MemoryImageStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyImage(i *model.Image) *model.Image {
	c := *i
	return &c
}
