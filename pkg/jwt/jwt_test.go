package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return privateKey
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewTestService(newTestKey(t), "test-issuer", 15*time.Minute)
}

func userClaims(id string) Claims {
	return Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: id},
		Name:             "Aino",
		Role:             "user",
	}
}

// ============================================================================
// Claims Tests
// ============================================================================

func TestClaims_UserID(t *testing.T) {
	t.Parallel()
	c := &Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "u1"}, Role: "admin"}

	if c.UserID() != "u1" {
		t.Errorf("expected subject u1, got %q", c.UserID())
	}
}

// ============================================================================
// Sign Tests
// ============================================================================

func TestSign_ValidClaims_ReturnsToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(userClaims("u1"))

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected 3 token parts, got %d", len(parts))
	}
}

func TestSign_NoPrivateKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	svc := &Service{publicKey: &newTestKey(t).PublicKey}

	_, err := svc.Sign(userClaims("u1"))

	if err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSign_SetsIssuerAndDefaultExpiration(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	before := time.Now().Add(-time.Second)

	token, _ := svc.Sign(userClaims("u1"))
	claims, err := svc.Validate(token)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer test-issuer, got %q", claims.Issuer)
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Before(before) {
		t.Errorf("expected issued-at to be now, got %v", claims.IssuedAt)
	}
	want := before.Add(15 * time.Minute)
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(want) {
		t.Errorf("expected expiry about 15 minutes out, got %v", claims.ExpiresAt)
	}
}

func TestSign_PreservesCustomExpiration(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	custom := time.Now().Add(3 * time.Hour).Truncate(time.Second)
	c := userClaims("u1")
	c.ExpiresAt = gojwt.NewNumericDate(custom)

	token, _ := svc.Sign(c)
	claims, err := svc.Validate(token)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(custom) {
		t.Errorf("expected expiry %v, got %v", custom, claims.ExpiresAt.Time)
	}
}

// ============================================================================
// Validate Tests
// ============================================================================

func TestSignAndValidate_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, _ := svc.Sign(Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "u2"},
		Name:             "Bea",
		Role:             "admin",
	})
	claims, err := svc.ValidateAccessToken(token)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.UserID() != "u2" || claims.Name != "Bea" || claims.Role != "admin" {
		t.Errorf("claims did not survive the round trip: %+v", claims)
	}
}

func TestValidate_Malformed_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d", "not.a.token"} {
		if _, err := svc.Validate(token); err != ErrInvalidToken {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestValidate_NoPublicKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	svc := &Service{}

	if _, err := svc.Validate("a.b.c"); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestValidate_DifferentKey_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	signer := newTestService(t)
	verifier := newTestService(t)

	token, _ := signer.Sign(userClaims("u1"))
	_, err := verifier.Validate(token)

	if err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_TamperedClaims_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	token, _ := svc.Sign(userClaims("u1"))
	other, _ := svc.Sign(userClaims("someone-else"))

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]

	if _, err := svc.Validate(tampered); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_ExpiredToken_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	c := userClaims("u1")
	c.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(-time.Hour))

	token, _ := svc.Sign(c)

	if _, err := svc.Validate(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_TokenNotYetValid_ReturnsErrTokenNotYetValid(t *testing.T) {
	t.Parallel()
	key := newTestKey(t)
	svc := NewTestService(key, "test-issuer", time.Hour)
	c := userClaims("u1")
	c.Issuer = "test-issuer"
	c.NotBefore = gojwt.NewNumericDate(time.Now().Add(time.Hour))
	c.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(2 * time.Hour))

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, c).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := svc.Validate(token); err != ErrTokenNotYetValid {
		t.Errorf("expected ErrTokenNotYetValid, got %v", err)
	}
}

func TestValidate_WrongIssuer_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	key := newTestKey(t)
	signer := NewTestService(key, "someone-else", time.Hour)
	verifier := NewTestService(key, "test-issuer", time.Hour)

	token, _ := signer.Sign(userClaims("u1"))

	if _, err := verifier.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_OtherAlgorithm_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	c := userClaims("u1")
	c.Issuer = "test-issuer"

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := svc.Validate(token); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_MissingSubject_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, _ := svc.Sign(Claims{Name: "nobody"})

	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGetExpiration_ReturnsConfiguredDuration(t *testing.T) {
	t.Parallel()
	svc := NewTestService(newTestKey(t), "i", 42*time.Minute)

	if svc.GetExpiration() != 42*time.Minute {
		t.Errorf("expected 42m, got %v", svc.GetExpiration())
	}
}

// ============================================================================
// Key Loading Tests
// ============================================================================

func TestGenerateKeyPair_NewService_SignsAndValidates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(priv, pub); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	signer, err := NewService(Config{PrivateKeyPath: priv, Issuer: "lfg", ExpirationMins: 5})
	if err != nil {
		t.Fatalf("failed to load private key: %v", err)
	}
	verifier, err := NewService(Config{PublicKeyPath: pub, Issuer: "lfg"})
	if err != nil {
		t.Fatalf("failed to load public key: %v", err)
	}

	token, err := signer.Sign(userClaims("u1"))
	if err != nil {
		t.Fatalf("expected no error signing, got %v", err)
	}
	if _, err := verifier.Validate(token); err != nil {
		t.Errorf("expected public-key service to validate, got %v", err)
	}
	if _, err := verifier.Sign(userClaims("u1")); err != ErrInvalidKey {
		t.Errorf("expected public-key service to refuse signing, got %v", err)
	}
	if signer.GetExpiration() != 5*time.Minute {
		t.Errorf("expected 5m expiration, got %v", signer.GetExpiration())
	}
}

func TestNewService_NoKeys_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()

	if _, err := NewService(Config{Issuer: "lfg"}); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNewService_KeyNotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	if _, err := NewService(Config{PrivateKeyPath: "/nonexistent/private.pem"}); err == nil {
		t.Error("expected error for missing private key")
	}
	if _, err := NewService(Config{PublicKeyPath: "/nonexistent/public.pem"}); err == nil {
		t.Error("expected error for missing public key")
	}
}

func TestNewService_InvalidPEM_ReturnsError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(path, []byte("not a pem file"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := NewService(Config{PrivateKeyPath: path}); err == nil {
		t.Error("expected error for invalid private key PEM")
	}
	if _, err := NewService(Config{PublicKeyPath: path}); err == nil {
		t.Error("expected error for invalid public key PEM")
	}
}

func TestGenerateKeyPair_InvalidPath_ReturnsError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if err := GenerateKeyPair("/nonexistent/dir/private.pem", filepath.Join(dir, "public.pem")); err == nil {
		t.Error("expected error for invalid private key path")
	}
	if err := GenerateKeyPair(filepath.Join(dir, "private.pem"), "/nonexistent/dir/public.pem"); err == nil {
		t.Error("expected error for invalid public key path")
	}
}
