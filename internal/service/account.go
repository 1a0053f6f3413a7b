package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/auth"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/model"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthResult pairs a fresh session token with the account it belongs to.
type AuthResult struct {
	Token string
	User  *model.User
}

// AccountService owns registration, login and profile reads. Password
// hashing and session issuance delegate to the auth package; the balance
// users start with comes from configuration.
type AccountService struct {
	users        store.UserStore
	sessions     *auth.SessionManager
	signupTokens int
}

func NewAccountService(users store.UserStore, sessions *auth.SessionManager, signupTokens int) *AccountService {
	return &AccountService{
		users:        users,
		sessions:     sessions,
		signupTokens: signupTokens,
	}
}

// Register creates an account with the starting balance and logs it in.
// A duplicate email surfaces as store.ErrEmailTaken.
func (s *AccountService) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.CreateUserParams{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Tokens:       s.signupTokens,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	log.Info().
		Str("userId", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies the password and issues a session. A missing account and
// a wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	log.Debug().Str("userId", user.ID).Msg("user logged in")

	return &AuthResult{Token: token, User: user}, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}
