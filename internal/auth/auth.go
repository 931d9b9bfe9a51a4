// Package auth issues and verifies caller credentials: HS256-signed JWTs
// whose subject is the caller's address. The HTTP layer resolves the acting
// address from the credential, never from the request body.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/atmx/yield-farm/internal/model"
)

// MinSecretLen is the shortest HMAC secret NewIssuer accepts.
const MinSecretLen = 32

var (
	ErrWeakSecret        = fmt.Errorf("auth: secret must be at least %d bytes", MinSecretLen)
	ErrMissingCredential = errors.New("auth: missing bearer credential")
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Issuer signs and verifies credentials with a shared secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an issuer for secret.
func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	return &Issuer{secret: append([]byte(nil), secret...), now: time.Now}, nil
}

// Issue returns a signed credential for caller. A zero ttl never expires.
func (i *Issuer) Issue(caller model.Address, ttl time.Duration) (string, error) {
	if caller == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidCredential)
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:  string(caller),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks raw's signature and expiry and returns the caller it names.
func (i *Issuer) Verify(raw string) (model.Address, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidCredential)
	}
	return model.Address(claims.Subject), nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return "", ErrMissingCredential
	}
	return strings.TrimSpace(raw), nil
}

type callerKey struct{}

// WithCaller returns a context carrying the authenticated caller.
func WithCaller(ctx context.Context, caller model.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the authenticated caller stored by WithCaller.
func CallerFrom(ctx context.Context) (model.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(model.Address)
	return caller, ok && caller != ""
}
