package clerk

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://clerk.example.com"

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	verifier, err := NewVerifier(ctx, VerifierConfig{JWKSURL: server.URL, Issuer: testIssuer})
	require.NoError(t, err)
	return verifier, key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user_123",
		"sid": "sess_1",
		"exp": now.Add(10 * time.Minute).Unix(),
		"iat": now.Unix(),
	}
}

func TestVerifier_Verify(t *testing.T) {
	verifier, key := newTestVerifier(t)

	t.Run("valid token", func(t *testing.T) {
		claims, err := verifier.Verify(signToken(t, key, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user_123", claims.Subject)
		assert.Equal(t, "sess_1", claims.SessionID)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		_, err = verifier.Verify(signToken(t, other, validClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims["iss"] = "https://evil.example.com"
		_, err := verifier.Verify(signToken(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := verifier.Verify(signToken(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "sub")
		_, err := verifier.Verify(signToken(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifier_Authenticate(t *testing.T) {
	verifier, key := newTestVerifier(t)
	token := signToken(t, key, validClaims())

	r := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	_, err := verifier.Authenticate(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	claims, err := verifier.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.Subject)

	r = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	claims, err = verifier.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.Subject)
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := extractBearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	for _, header := range []string{"Bearer", "Token abc", "", "Bearer   "} {
		_, ok := extractBearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestFrontendAPI(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("clerk.example.com$"))

	host, err := FrontendAPI("pk_test_" + encoded)
	require.NoError(t, err)
	assert.Equal(t, "clerk.example.com", host)

	host, err = FrontendAPI("pk_live_" + base64.RawStdEncoding.EncodeToString([]byte("clerk.jobtrack.app$")))
	require.NoError(t, err)
	assert.Equal(t, "clerk.jobtrack.app", host)

	for _, key := range []string{"", "sk_test_abc", "pk_test_!!!", "pk_test"} {
		_, err := FrontendAPI(key)
		assert.Error(t, err, key)
	}
}
