// Package service contains application services for accounts, pockets,
// restaurants and visit records.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/foodpocket/internal/crypto"
	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/limiter"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/and161185/foodpocket/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// tokenAttempts bounds retries when a generated token collides with a stored one.
const tokenAttempts = 3

// AuthService defines registration, login and token resolution.
type AuthService interface {
	// Register creates an account and its default pocket.
	Register(ctx context.Context, username, password, email string) (uuid.UUID, error)
	// Login verifies credentials under rate limiting and issues a token.
	Login(ctx context.Context, username, password, ip string) (model.Session, error)
	// Authenticate resolves a token to its account id.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	accounts repository.AccountRepository
	tokens   repository.TokenRepository
	pockets  repository.PocketRepository
	lim      limiter.Limiter
	tokenTTL time.Duration
	clock    Clock
	newToken func() (string, error)
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	accounts repository.AccountRepository,
	tokens repository.TokenRepository,
	pockets repository.PocketRepository,
	lim limiter.Limiter,
	tokenTTL time.Duration,
	clock Clock,
) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{
		accounts: accounts,
		tokens:   tokens,
		pockets:  pockets,
		lim:      lim,
		tokenTTL: tokenTTL,
		clock:    clock,
		newToken: func() (string, error) { return crypto.GenerateToken(crypto.TokenLen) },
	}
}

// Register validates the credentials and stores the account with a first pocket.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password, email string) (uuid.UUID, error) {
	name, err := model.NormalizeUsername(username)
	if err != nil {
		return uuid.Nil, err
	}
	if name == "" {
		return uuid.Nil, errs.Invalid("Username cannot be empty")
	}
	if err := model.ValidateEmail(email); err != nil {
		return uuid.Nil, err
	}
	if password == "" {
		return uuid.Nil, errs.Invalid("Password cannot be empty")
	}

	hash, salt, err := crypto.HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}
	a := &model.Account{
		ID:       uuid.Must(uuid.NewV4()),
		Username: name,
		PwdHash:  hash,
		Salt:     salt,
		Email:    email,
		Status:   model.AccountActive,
	}
	first := &model.Pocket{
		ID:      uuid.Must(uuid.NewV4()),
		OwnerID: a.ID,
		Name:    model.DefaultPocketName,
		Status:  model.PocketActive,
	}
	if err := s.accounts.Create(ctx, a, first); err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

// Login authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Session, error) {
	name, err := model.NormalizeUsername(username)
	if err != nil {
		return model.Session{}, err
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, name, ipHash)
	if err != nil {
		return model.Session{}, err
	}
	if !allowed {
		return model.Session{}, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByUsername(ctx, name)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, err
	}
	if a == nil || !crypto.VerifyPassword(password, a.Salt, a.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, name, ipHash); ferr == nil && blocked {
			return model.Session{}, errs.ErrRateLimited
		}
		return model.Session{}, errs.ErrLoginFailed
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, name, ipHash)

	now := s.clock.Now()
	tok, err := s.issueToken(ctx, a.ID, now)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.accounts.TouchLogin(ctx, a.ID, now); err != nil {
		return model.Session{}, err
	}

	sess := model.Session{Token: tok}
	p, err := s.pockets.LastUsed(ctx, a.ID)
	switch {
	case err == nil:
		sess.LastPocket = p.Brief()
	case !errors.Is(err, errs.ErrNotFound):
		return model.Session{}, err
	}
	return sess, nil
}

// issueToken stores a fresh random token, regenerating it on collision.
func (s *AuthServiceImpl) issueToken(ctx context.Context, accountID uuid.UUID, now time.Time) (model.Token, error) {
	for range tokenAttempts {
		str, err := s.newToken()
		if err != nil {
			return model.Token{}, err
		}
		tok := model.Token{
			Token:      str,
			AccountID:  accountID,
			ExpireTime: now.Add(s.tokenTTL),
			Status:     model.TokenActive,
			CreatedAt:  now,
		}
		err = s.tokens.Create(ctx, &tok)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, errs.ErrAlreadyExists) {
			return model.Token{}, err
		}
	}
	return model.Token{}, fmt.Errorf("issue token: %d collisions in a row", tokenAttempts)
}

// Authenticate resolves a token that has not expired yet.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return s.tokens.Owner(ctx, token, s.clock.Now())
}
