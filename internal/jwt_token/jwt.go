// Package jwttoken validates the signed identity assertions presented to the
// HTTP surface. Authentication (passwords, MFA, sessions) happens upstream;
// the assertion only carries the already-authenticated user id, which the
// middleware places in the request context.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "caregate/pkg/domain-errors"
)

// Claims are the identity assertion claims.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Identity is what the middleware extracts from a valid assertion.
type Identity struct {
	UserID string
}

// Service validates (and, for tests and the demo seeder, mints) assertions.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// Mint issues an assertion for the given user. Exists for test harnesses and
// development seeding; production assertions come from the upstream
// authentication system sharing the signing key.
func (s *Service) Mint(userID string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign assertion")
	}
	return signed, nil
}

// Validate parses and verifies an assertion, returning the asserted identity.
func (s *Service) Validate(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid identity assertion")
	}
	if claims.UserID == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "assertion missing user id")
	}
	return Identity{UserID: claims.UserID}, nil
}
