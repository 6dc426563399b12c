package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const testKeyID = "test-key"

func jwksJSON(t *testing.T, pub *rsa.PublicKey) json.RawMessage {
	t.Helper()
	set := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestGenerateAndParseToken(t *testing.T) {
	tm := newTokenManager("secret", "helpdesk", 5)
	user := &domain.User{ID: "user-1", Email: "ana@example.com"}

	token, expiresAt, err := tm.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry in the past: %v", expiresAt)
	}

	claims, err := tm.ParseToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejections(t *testing.T) {
	tm := newTokenManager("secret", "helpdesk", 5)
	other := newTokenManager("other-secret", "helpdesk", 5)
	foreignIssuer := newTokenManager("secret", "someone-else", 5)
	user := &domain.User{ID: "user-1"}

	wrongKey, _, _ := other.GenerateToken(user)
	wrongIssuer, _, _ := foreignIssuer.GenerateToken(user)

	expiredClaims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "helpdesk",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "helpdesk",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("secret"))

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"no subject":   noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tm.ParseToken(context.Background(), token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseTokenWithJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON(t, &key.PublicKey))
	if err != nil {
		t.Fatalf("keyfunc: %v", err)
	}
	tm := NewTokenManagerWithKeyfunc("", "https://idp.test", 60, kf)

	token := signRS256(t, key, jwt.MapClaims{
		"sub":   "user-9",
		"email": "tech@example.com",
		"iss":   "https://idp.test",
		"exp":   jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":   jwt.NewNumericDate(time.Now()),
	})
	claims, err := tm.ParseToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-9" || claims.Email != "tech@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	hs, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-9",
		"iss": "https://idp.test",
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("guessed-secret"))
	if _, err := tm.ParseToken(context.Background(), hs); err == nil {
		t.Fatal("expected symmetric token to be rejected without a secret")
	}
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	tm := newTokenManager("", "", 5)
	if _, _, err := tm.GenerateToken(&domain.User{ID: "u"}); err == nil {
		t.Fatal("expected error without signing secret")
	}
}
