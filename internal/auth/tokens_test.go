package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	iss := NewTokenIssuer([]byte(strings.Repeat("s", 32)))
	iss.Now = func() time.Time { return now }

	tok, err := iss.Issue(TokenClaims{Purpose: PurposeInvite, InviteID: 42}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := iss.Parse(tok, PurposeInvite)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.InviteID != 42 {
		t.Fatalf("InviteID: got %d", claims.InviteID)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	iss := NewTokenIssuer([]byte(strings.Repeat("s", 32)))
	iss.Now = func() time.Time { return now }

	tok, err := iss.Issue(TokenClaims{Purpose: PurposeReset, UserID: 3, PasswordFP: "abc"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := iss.Parse(tok, PurposeInvite); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong purpose: expected ErrTokenInvalid, got %v", err)
	}

	if _, err := iss.Parse(tok+"x", PurposeReset); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("tampered: expected ErrTokenInvalid, got %v", err)
	}

	other := NewTokenIssuer([]byte(strings.Repeat("o", 32)))
	other.Now = iss.Now
	if _, err := other.Parse(tok, PurposeReset); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("other secret: expected ErrTokenInvalid, got %v", err)
	}

	iss.Now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := iss.Parse(tok, PurposeReset); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expired: expected ErrTokenInvalid, got %v", err)
	}
}
