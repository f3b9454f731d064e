// Package clerk verifies Clerk session tokens and reads user profiles from
// the Clerk backend API.
package clerk

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie holds the session token for browser requests.
	SessionCookie = "__session"

	defaultLeeway = 30 * time.Second
)

var (
	ErrMissingToken = errors.New("missing session token")
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims are the verified session token details used by the app.
type Claims struct {
	Subject   string
	SessionID string
	Issuer    string
	ExpiresAt time.Time
}

// VerifierConfig configures token verification. JWKSURL and Issuer are
// derived from the publishable key when empty.
type VerifierConfig struct {
	PublishableKey string
	JWKSURL        string
	Issuer         string
}

// Verifier validates RS256 session tokens against the instance JWKS.
type Verifier struct {
	issuer string
	keys   jwt.Keyfunc
	parser *jwt.Parser
}

// NewVerifier fetches the JWKS and keeps it refreshed until ctx is done.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	issuer := strings.TrimRight(strings.TrimSpace(cfg.Issuer), "/")
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if issuer == "" || jwksURL == "" {
		frontendAPI, err := FrontendAPI(cfg.PublishableKey)
		if err != nil {
			return nil, err
		}
		if issuer == "" {
			issuer = "https://" + frontendAPI
		}
		if jwksURL == "" {
			jwksURL = "https://" + frontendAPI + "/.well-known/jwks.json"
		}
	}

	provider, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("init JWKS keyfunc: %w", err)
	}
	return newVerifier(issuer, provider.Keyfunc), nil
}

func newVerifier(issuer string, keys jwt.Keyfunc) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{
		issuer: issuer,
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}
}

// FrontendAPI decodes the instance host embedded in a publishable key
// (pk_test_<base64 host$>).
func FrontendAPI(publishableKey string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(publishableKey), "_", 3)
	if len(parts) != 3 || parts[0] != "pk" {
		return "", fmt.Errorf("malformed publishable key")
	}
	encoded := parts[2]
	decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", fmt.Errorf("malformed publishable key: %w", err)
	}
	host := strings.TrimSuffix(string(decoded), "$")
	if host == "" || strings.ContainsAny(host, "/ ") {
		return "", fmt.Errorf("malformed publishable key")
	}
	return host, nil
}

// Verify parses and validates a session token.
func (v *Verifier) Verify(token string) (*Claims, error) {
	var claims sessionClaims
	parsed, err := v.parser.ParseWithClaims(token, &claims, v.keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	out := &Claims{
		Subject:   claims.Subject,
		SessionID: claims.SessionID,
		Issuer:    claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Authenticate reads the token from the Authorization header, falling back
// to the session cookie, and verifies it.
func (v *Verifier) Authenticate(r *http.Request) (*Claims, error) {
	token, ok := TokenFromRequest(r)
	if !ok {
		return nil, ErrMissingToken
	}
	return v.Verify(token)
}

// TokenFromRequest extracts the session token of a request.
func TokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		return extractBearerToken(header)
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
