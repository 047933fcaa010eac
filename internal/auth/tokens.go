package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("token invalid")

const (
	PurposeInvite      = "invite"
	PurposeReset       = "reset"
	PurposeEmailChange = "email"
)

// TokenClaims is the payload of every emailed token. Purpose keeps a token
// issued for one flow from being redeemed in another.
type TokenClaims struct {
	Purpose      string `json:"purpose"`
	InviteID     int64  `json:"invite_id,omitempty"`
	UserID       int64  `json:"user_id"`
	PasswordFP   string `json:"pwd,omitempty"`
	Email        string `json:"email,omitempty"`
	CurrentEmail string `json:"cur,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with the application secret.
type TokenIssuer struct {
	secret []byte
	Now    func() time.Time
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)
	return &TokenIssuer{secret: secretCopy}
}

func (t *TokenIssuer) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

func (t *TokenIssuer) Issue(claims TokenClaims, ttl time.Duration) (string, error) {
	if claims.Purpose == "" {
		return "", errors.New("token purpose is required")
	}
	now := t.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, expiry and purpose. Every failure is ErrTokenInvalid.
func (t *TokenIssuer) Parse(token, purpose string) (TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Purpose != purpose {
		return TokenClaims{}, fmt.Errorf("%w: purpose %q", ErrTokenInvalid, claims.Purpose)
	}
	return claims, nil
}
