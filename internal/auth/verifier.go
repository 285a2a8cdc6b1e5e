package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arunika0/menu/internal/model"
	"github.com/arunika0/menu/internal/repository"
)

// UserLookup finds credential records by username.  It returns
// repository.ErrNotFound when no user matches.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// LoginResult is returned by a successful Authenticate.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  model.Identity
}

// Verifier checks username/password pairs and issues access tokens.
type Verifier struct {
	users  UserLookup
	hasher Hasher
	codec  *Codec
	ttl    time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewVerifier wires a verifier.  ttl is the validity window of issued tokens.
func NewVerifier(users UserLookup, hasher Hasher, codec *Codec, ttl time.Duration) *Verifier {
	return &Verifier{users: users, hasher: hasher, codec: codec, ttl: ttl}
}

// Authenticate verifies the credentials and signs a token embedding the
// user's id, username, role and restaurant.  Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials.
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn a comparison so a missing user costs as much as a bad password
			v.hasher.Verify(password, v.dummy())
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !v.hasher.Verify(password, u.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	id := model.IdentityOf(u)
	token, exp, err := v.codec.Sign(id, v.ttl)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, Identity: id}, nil
}

func (v *Verifier) dummy() string {
	v.dummyOnce.Do(func() {
		v.dummyHash, _ = v.hasher.Hash("menu-api-dummy-password")
	})
	return v.dummyHash
}
