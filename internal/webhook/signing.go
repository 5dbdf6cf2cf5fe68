package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "grader"
	tokenTTL    = 5 * time.Minute
)

// BodyClaims bind a signed token to one request body.
type BodyClaims struct {
	BodySHA256 string `json:"body_sha256"`
	jwt.RegisteredClaims
}

// signBody returns an HS256 token carrying the SHA-256 of body.
func signBody(body, secret []byte, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt auth requires a non-empty auth token")
	}

	sum := sha256.Sum256(body)
	claims := BodyClaims{
		BodySHA256: hex.EncodeToString(sum[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign webhook token: %w", err)
	}
	return raw, nil
}

// VerifyBody checks a token produced for body with secret. Receivers can
// use it to authenticate deliveries.
func VerifyBody(raw string, body, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(raw, &BodyClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return fmt.Errorf("invalid webhook token: %w", err)
	}

	claims, ok := parsed.Claims.(*BodyClaims)
	if !ok || !parsed.Valid {
		return errors.New("invalid webhook token")
	}
	sum := sha256.Sum256(body)
	if claims.BodySHA256 != hex.EncodeToString(sum[:]) {
		return errors.New("webhook token does not match body")
	}
	return nil
}
