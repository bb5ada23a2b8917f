// Package auth verifies bearer tokens and resolves them into a request
// identity. Two strategies are supported, selected by issuer: asymmetric
// RS256 against a remote JWK set matched by key id, and symmetric HS256
// against a shared secret. A secondary subscription token, when present,
// is bound to the primary identity.
package auth

import (
	"time"
)

// Authorization header carrying the subscription tier token.
const SubscriptionHeader = "Subscription"

// Config is the process-wide verification configuration, constructed once
// at startup and passed into the Verifier. No environment lookups happen
// per request.
type Config struct {
	// Audience expected in primary and subscription tokens.
	Audience string `mapstructure:"audience"`
	// Issuer of primary identity tokens; its JWK set is fetched from
	// {issuer}/.well-known/jwks.json.
	Issuer string `mapstructure:"issuer"`
	// Secret verifies HS256 subscription tokens.
	Secret string `mapstructure:"secret"`
	// SecretIssuer is the expected issuer of subscription tokens.
	SecretIssuer string `mapstructure:"secretIssuer"`
	// AdminIssuer issues admin tokens, verified against its own JWK set.
	AdminIssuer string `mapstructure:"adminIssuer"`
	// AdminAudience expected in admin tokens.
	AdminAudience string `mapstructure:"adminAudience"`
	// AdminPermission must appear in an admin token's permissions claim.
	AdminPermission string `mapstructure:"adminPermission"`
	// KeySetTTL enables a per-issuer JWK-set cache when positive; the set
	// refreshes in the background at this interval. Zero disables caching:
	// one fetch per verification.
	KeySetTTL time.Duration `mapstructure:"keySetTTL"`
}

// Identity is the verified result of token verification. It lives for one
// request and is never persisted.
type Identity struct {
	// UserID is the stable subject of the primary token.
	UserID string
	// Subscription is the tier asserted by the subscription token, or
	// "none" when no subscription token accompanied the request.
	Subscription string
	// Permissions are the authorization claims of an admin token.
	Permissions []string
}

// HasPermission reports whether the identity carries the permission claim.
func (id *Identity) HasPermission(permission string) bool {
	for _, p := range id.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
