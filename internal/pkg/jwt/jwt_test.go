package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := New("secret-a", time.Hour)

	token, err := svc.GenerateToken(42, "host")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "host" {
		t.Fatalf("claims = %+v, want user 42 role host", claims)
	}
	if claims.Issuer != "hotel-booking" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := New("secret-a", time.Hour).GenerateToken(7, "guest")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := New("secret-b", time.Hour).ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: got %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpires(t *testing.T) {
	svc := New("secret-a", time.Hour)
	minted := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return minted }

	token, err := svc.GenerateToken(7, "guest")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = func() time.Time { return minted.Add(59 * time.Minute) }
	if _, err := svc.ValidateToken(token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	svc.now = func() time.Time { return minted.Add(61 * time.Minute) }
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	svc := New("secret-a", time.Hour)
	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: got %v, want ErrInvalidToken", err)
	}
}
