package auth

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LinkMaker builds and verifies one-time sign-in links
// scoped to a per-call secure URL
type LinkMaker struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewLinkMaker creates LinkMaker instance
func NewLinkMaker(baseURL, secret string, ttl time.Duration) (*LinkMaker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("no base URL")
	}
	if !strings.HasPrefix(baseURL, "http") {
		return nil, fmt.Errorf("no http in base URL")
	}
	if secret == "" {
		return nil, fmt.Errorf("no secret")
	}
	if ttl <= 0 {
		ttl = time.Hour * 24
	}
	return &LinkMaker{secret: []byte(secret), baseURL: strings.TrimSuffix(baseURL, "/"),
		ttl: ttl, now: time.Now}, nil
}

type linkClaims struct {
	jwt.RegisteredClaims
	CallID string `json:"callId"`
}

// Make returns a sign-in URL granting email access to the callID secure view
func (lm *LinkMaker) Make(email, callID string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("no email")
	}
	if callID == "" {
		return "", fmt.Errorf("no callID")
	}
	now := lm.now()
	claims := linkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lm.ttl)),
			ID:        uuid.NewString(),
		},
		CallID: callID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(lm.secret)
	if err != nil {
		return "", fmt.Errorf("can't sign link token: %w", err)
	}
	return fmt.Sprintf("%s/secure/%s?token=%s", lm.baseURL, url.PathEscape(callID),
		url.QueryEscape(token)), nil
}

// Verify checks the token grants access to callID, returns the email it was issued for
func (lm *LinkMaker) Verify(token, callID string) (string, error) {
	var claims linkClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(lm.now),
		jwt.WithLeeway(30*time.Second),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		return lm.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("can't parse link token: %w", err)
	}
	if claims.CallID != callID {
		return "", fmt.Errorf("token callID mismatch")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("no email in token")
	}
	return claims.Subject, nil
}
