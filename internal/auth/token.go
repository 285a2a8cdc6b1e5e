package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arunika0/menu/internal/model"
)

const tokenIssuer = "menu-api"

// Claims is the fixed payload of an access token.  The subject carries the
// user id in decimal.
type Claims struct {
	Username     string     `json:"username"`
	Role         model.Role `json:"role"`
	RestaurantID *uint64    `json:"restaurant_id"`
	jwt.RegisteredClaims
}

// Validate is invoked by the jwt validator once the registered claims
// (exp, iss) have passed.
func (c Claims) Validate() error {
	if _, err := strconv.ParseUint(c.Subject, 10, 64); err != nil {
		return errors.New("subject is not a user id")
	}
	if c.Username == "" {
		return errors.New("missing username")
	}
	return model.CheckTenantBinding(c.Role, c.RestaurantID)
}

// allowedClaims lists every key a token payload may carry.
var allowedClaims = map[string]bool{
	"sub": true, "username": true, "role": true, "restaurant_id": true,
	"exp": true, "iat": true, "nbf": true, "iss": true,
}

// Codec signs and verifies HS256 access tokens with a shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec for the given secret.
func NewCodec(secret string, opts ...CodecOption) *Codec {
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c
}

// Sign issues a token for id that expires after ttl.  It returns the
// serialized token and its expiry, truncated to whole seconds as stored in
// the exp claim.
func (c *Codec) Sign(id model.Identity, ttl time.Duration) (string, time.Time, error) {
	if err := id.Validate(); err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	now := c.now().UTC()
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims := Claims{
		Username:     id.Username,
		Role:         id.Role,
		RestaurantID: id.RestaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.UserID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp.Time, nil
}

// Verify checks signature, expiry and claim shape and returns the identity
// encoded in raw.  Every failure is reported as ErrInvalidToken.
func (c *Codec) Verify(raw string) (model.Identity, error) {
	claims := &Claims{}
	tok, err := c.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := c.rejectUnknownClaims(raw); err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	uid, _ := strconv.ParseUint(claims.Subject, 10, 64)
	return model.Identity{
		UserID:       uid,
		Username:     claims.Username,
		Role:         claims.Role,
		RestaurantID: claims.RestaurantID,
	}, nil
}

func (c *Codec) rejectUnknownClaims(raw string) error {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return errors.New("malformed token")
	}
	payload, err := c.parser.DecodeSegment(parts[1])
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return err
	}
	for k := range fields {
		if !allowedClaims[k] {
			return fmt.Errorf("unknown claim %q", k)
		}
	}
	return nil
}
