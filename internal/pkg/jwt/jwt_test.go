package jwt

import (
	"errors"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedUUID struct{ id string }

func (g fixedUUID) Generate() string { return g.id }

func testConfig(now time.Time) Config {
	return Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:     "goknock-test",
		Audiences:  []string{"goknock-cli"},
		TTLMinutes: 15 * time.Minute,
		Clock:      fixedClock{now: now},
		UUID:       fixedUUID{id: "token-id-1"},
	}
}

func TestNewHS512RejectsShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("too short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	// Arrange
	sym, err := NewHS512(testConfig(time.Now()))
	if err != nil {
		t.Fatalf("NewHS512: %v", err)
	}

	// Act
	token, err := sym.Generate(42, "Jane Doe", "5551234567")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := sym.Verify(token)

	// Assert
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.UserName != "Jane Doe" {
		t.Fatalf("expected user name Jane Doe, got %q", claims.UserName)
	}
	if claims.UserPhone != "5551234567" {
		t.Fatalf("expected user phone 5551234567, got %q", claims.UserPhone)
	}
	if claims.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", claims.Subject)
	}
	if claims.ID != "token-id-1" {
		t.Fatalf("expected token id token-id-1, got %q", claims.ID)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	// Arrange: issue a token whose expiry is already in the past.
	sym, err := NewHS512(testConfig(time.Now().Add(-2 * time.Hour)))
	if err != nil {
		t.Fatalf("NewHS512: %v", err)
	}

	token, err := sym.Generate(7, "Old User", "6281234567890")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Act
	_, err = sym.Verify(token)

	// Assert
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	// Arrange
	sym, err := NewHS512(testConfig(time.Now()))
	if err != nil {
		t.Fatalf("NewHS512: %v", err)
	}

	token, err := sym.Generate(7, "Jane Doe", "5551234567")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Act: flip the last byte of the signature.
	tampered := token[:len(token)-1] + "x"
	_, err = sym.Verify(tampered)

	// Assert
	if err == nil {
		t.Fatal("expected tampered token to fail verification")
	}
}

func TestPeekDecodesWithoutKey(t *testing.T) {
	// Arrange
	sym, err := NewHS512(testConfig(time.Now()))
	if err != nil {
		t.Fatalf("NewHS512: %v", err)
	}

	token, err := sym.Generate(9, "Jane Doe", "5551234567")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Act
	claims, err := Peek(token)

	// Assert
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if claims.UserPhone != "5551234567" {
		t.Fatalf("expected phone claim, got %q", claims.UserPhone)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", claims.ExpiresAt)
	}
}

func TestPeekRejectsGarbage(t *testing.T) {
	if _, err := Peek("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
