package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// tokenPolicy pins the claims every access token must carry. Tokens are
// minted and consumed by this service alone, so the issuer, audience, and
// HMAC algorithm are always enforced rather than optional.
type tokenPolicy struct {
	issuer    string
	audience  string
	clockSkew time.Duration
	algorithm jwa.SignatureAlgorithm
}

func newTokenPolicy(issuer, audience string, skew time.Duration) tokenPolicy {
	return tokenPolicy{
		issuer:    issuer,
		audience:  audience,
		clockSkew: skew,
		algorithm: jwa.HS256,
	}
}

// check validates the token's signature algorithm and registered claims
// against the policy at the supplied instant.
func (p tokenPolicy) check(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return errors.New("auth: token is nil")
	}
	if algorithm == "" {
		return errors.New("auth: token missing algorithm")
	}
	if algorithm != p.algorithm {
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
	}
	if p.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(p.clockSkew))
	}
	return jwt.Validate(tok, options...)
}
