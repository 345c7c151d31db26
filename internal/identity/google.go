// Package identity verifies third-party identity assertions. Only Google is
// supported: the client app obtains an ID token from Google Sign-In and the
// backend verifies it against the configured OAuth client ID.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

// ErrInvalidAssertion is returned for any verification failure: bad
// signature, wrong audience, expired token, or a payload without an email.
var ErrInvalidAssertion = errors.New("google authentication failed")

// Profile is the verified identity extracted from a valid assertion.
type Profile struct {
	SubjectID string
	Email     string
	Name      string
	Picture   string
}

// Verifier validates an identity assertion and extracts the profile.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Profile, error)
}

// GoogleVerifier verifies Google-issued ID tokens via OIDC discovery.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier fetches Google's OIDC configuration and builds a
// verifier bound to the given OAuth client ID as the expected audience.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}
	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

type googleClaims struct {
	Sub      string `json:"sub,omitempty"`
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"email_verified,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// Verify checks the token's signature, audience and expiry, and returns the
// embedded profile. The email is lowercased; a missing email fails the
// assertion outright.
func (g *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (*Profile, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: read claims: %v", ErrInvalidAssertion, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token missing email", ErrInvalidAssertion)
	}

	name := claims.Name
	if name == "" {
		name = "Google User"
	}

	return &Profile{
		SubjectID: claims.Sub,
		Email:     strings.ToLower(claims.Email),
		Name:      name,
		Picture:   claims.Picture,
	}, nil
}
