package auth

import (
	"strings"

	"github.com/arunika0/menu/internal/model"
)

// Mode selects how an endpoint treats a missing or bad bearer token.
type Mode int

const (
	// Mandatory rejects the request on any authentication failure.
	Mandatory Mode = iota
	// Optional proceeds anonymously on any authentication failure.
	Optional
)

func (m Mode) String() string {
	if m == Optional {
		return "optional"
	}
	return "mandatory"
}

// Authenticator turns an Authorization header into a verified identity.
type Authenticator struct {
	codec *Codec
}

// NewAuthenticator returns an authenticator backed by codec.
func NewAuthenticator(codec *Codec) *Authenticator {
	return &Authenticator{codec: codec}
}

// Verify extracts the token from a "Bearer <token>" header value and
// verifies it.  It fails with ErrMissingToken when no bearer token is
// present and ErrInvalidToken when the token does not verify.
func (a *Authenticator) Verify(header string) (model.Identity, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return model.Identity{}, ErrMissingToken
	}
	return a.codec.Verify(raw)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
