package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrTokenExpired = errors.New("token has expired")
)

// TokenService issues and verifies the HMAC-signed bearer tokens the API
// hands out on POST /users/token. Issuing and verifying share one symmetric
// key, so no key set endpoint is involved.
type TokenService struct {
	key    jwk.Key
	issuer string
	ttl    time.Duration
}

// NewTokenService builds a token service from the shared signing secret.
func NewTokenService(secret []byte, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to import signing key: %w", err)
	}

	return &TokenService{
		key:    key,
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// Issue creates a signed token whose subject is the user's ID.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Parse validates a token string and returns the user ID it was issued for.
func (s *TokenService) Parse(tokenString string) (int64, error) {
	token, err := jwt.ParseString(
		tokenString,
		jwt.WithKey(jwa.HS256(), s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		// Check if token is expired
		if err.Error() == "exp not satisfied" || strings.Contains(err.Error(), "expired") {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}

	var subject string
	if err := token.Get("sub", &subject); err != nil {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}

	return userID, nil
}
