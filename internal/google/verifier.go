// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var (
	ErrClientIDMissing = errors.New("GOOGLE_CLIENT_ID is not set")
	ErrNoEmail         = errors.New("google token carries no email")
)

// Identity is the subset of the token payload the app uses.
type Identity struct {
	Name    string
	Email   string
	Picture string
}

// ValidateFunc matches idtoken.Validate.
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Verifier checks ID tokens against the configured OAuth client id.
type Verifier struct {
	clientID string
	validate ValidateFunc
}

// NewVerifier creates a Verifier backed by Google's public keys.
func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// NewVerifierWithValidator swaps the validation call, for tests.
func NewVerifierWithValidator(clientID string, fn ValidateFunc) *Verifier {
	return &Verifier{clientID: clientID, validate: fn}
}

// Verify validates idToken and extracts the caller's identity.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if v.clientID == "" {
		return nil, ErrClientIDMissing
	}

	payload, err := v.validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}

	id := &Identity{
		Name:    claimString(payload.Claims, "name"),
		Email:   claimString(payload.Claims, "email"),
		Picture: claimString(payload.Claims, "picture"),
	}
	if id.Email == "" {
		return nil, ErrNoEmail
	}
	return id, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
