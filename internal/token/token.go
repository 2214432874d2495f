// Package token mints and parses the HS256 session tokens handed out after
// login or verification.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

const issuer = "storefront"

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"typ"`
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Issuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(key []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{key: key, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Mint signs a fresh access/refresh pair for user.
func (i *Issuer) Mint(user *domain.User) (Pair, error) {
	now := i.now()

	access, err := i.sign(user.ID, KindAccess, now, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(user.ID, KindRefresh, now, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) sign(userID string, kind Kind, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// ParseAccess returns the user ID carried by a valid access token.
func (i *Issuer) ParseAccess(raw string) (string, error) {
	return i.parse(raw, KindAccess)
}

// ParseRefresh returns the user ID carried by a valid refresh token.
func (i *Issuer) ParseRefresh(raw string) (string, error) {
	return i.parse(raw, KindRefresh)
}

func (i *Issuer) parse(raw string, want Kind) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if claims.Kind != want {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, errors.New("wrong token kind"))
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthorized, errors.New("missing subject"))
	}
	return claims.Subject, nil
}
