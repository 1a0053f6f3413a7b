package store

import (
	"context"
	"errors"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)

// UserStore is the persistence boundary for accounts. A database-backed
// implementation can be substituted without touching handler or service code.
type UserStore interface {
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Debit atomically checks and decrements the token balance. It returns
	// the remaining balance, or ErrInsufficientTokens leaving the balance
	// untouched. Concurrent callers never observe a negative balance.
	Debit(ctx context.Context, id string, amount int) (int, error)
	Count(ctx context.Context) (int, error)
}

// ImageStore holds generation records. Append-only.
type ImageStore interface {
	Create(ctx context.Context, params model.CreateImageParams) (*model.Image, error)
	FindByID(ctx context.Context, id string) (*model.Image, error)
	FindByUserID(ctx context.Context, userID string) ([]model.Image, error)
	Count(ctx context.Context) (int, error)
}
