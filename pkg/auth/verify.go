package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken reports a missing Authorization header or one without
	// the literal "Bearer " prefix. Maps to 401.
	ErrNoToken = errors.New("no bearer token")
	// ErrUnauthorized covers every verification failure: unknown key id,
	// signature mismatch, audience/issuer mismatch, missing claims,
	// subscription/identity mismatch, absent admin permission. Callers
	// must not leak which check failed. Maps to 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrKeySetUnavailable reports a failed remote key-set fetch. It is
	// an infrastructure failure, not an authorization outcome. Maps
	// to 500.
	ErrKeySetUnavailable = errors.New("key set unavailable")
)

// Verifier validates bearer tokens per the process configuration. Safe for
// concurrent use.
type Verifier struct {
	cfg    Config
	client *http.Client

	mu      sync.Mutex
	keySets map[string]keyfunc.Keyfunc
}

// NewVerifier builds a Verifier from the startup configuration.
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		keySets: make(map[string]keyfunc.Keyfunc),
	}
}

// primaryClaims are the claims of an identity-provider access token.
type primaryClaims struct {
	jwt.RegisteredClaims
}

// subscriptionClaims bind a subscription tier to an identity reference.
type subscriptionClaims struct {
	jwt.RegisteredClaims
	Subscription string `json:"subscription"`
	UserID       string `json:"user_id"`
}

// adminClaims carry the permission list of an elevated token.
type adminClaims struct {
	jwt.RegisteredClaims
	Subscription string   `json:"subscription"`
	Permissions  []string `json:"permissions"`
}

// VerifyRequest resolves the request's Authorization header into an
// Identity. The primary token is verified RS256 against the configured
// issuer's JWK set. A Subscription header, when present, must carry an
// HS256 token whose embedded identity reference matches the primary
// subject; a mismatch is unauthorized, preventing token mixing across
// principals.
func (v *Verifier) VerifyRequest(r *http.Request) (*Identity, error) {
	raw, err := bearerToken(r, "Authorization")
	if err != nil {
		return nil, err
	}

	kf, err := v.keyfuncFor(r.Context(), v.cfg.Issuer)
	if err != nil {
		return nil, err
	}

	claims := &primaryClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, kf.KeyfuncCtx(r.Context()),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithIssuer(v.cfg.Issuer),
	)
	if err != nil || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	ident := &Identity{UserID: claims.Subject, Subscription: "none"}

	if r.Header.Get(SubscriptionHeader) == "" {
		return ident, nil
	}

	subRaw, err := bearerToken(r, SubscriptionHeader)
	if err != nil {
		return nil, err
	}

	subClaims := &subscriptionClaims{}
	_, err = jwt.ParseWithClaims(subRaw, subClaims,
		func(*jwt.Token) (any, error) { return []byte(v.cfg.Secret), nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithIssuer(v.cfg.SecretIssuer),
	)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if subClaims.UserID != claims.Subject {
		return nil, ErrUnauthorized
	}

	ident.Subscription = subClaims.Subscription
	return ident, nil
}

// VerifyAdmin resolves the request's Authorization header against the
// admin issuer and requires the configured permission claim. A valid
// token lacking the permission is unauthorized, not forbidden: the status
// never distinguishes the two.
func (v *Verifier) VerifyAdmin(r *http.Request) (*Identity, error) {
	raw, err := bearerToken(r, "Authorization")
	if err != nil {
		return nil, err
	}

	kf, err := v.keyfuncFor(r.Context(), v.cfg.AdminIssuer)
	if err != nil {
		return nil, err
	}

	claims := &adminClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, kf.KeyfuncCtx(r.Context()),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.cfg.AdminAudience),
		jwt.WithIssuer(v.cfg.AdminIssuer),
	)
	if err != nil || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	ident := &Identity{
		UserID:       claims.Subject,
		Subscription: claims.Subscription,
		Permissions:  claims.Permissions,
	}
	if !ident.HasPermission(v.cfg.AdminPermission) {
		return nil, ErrUnauthorized
	}
	return ident, nil
}

// bearerToken extracts a "Bearer "-prefixed token from the named header.
func bearerToken(r *http.Request, header string) (string, error) {
	value := r.Header.Get(header)
	if value == "" {
		return "", ErrNoToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return "", ErrNoToken
	}
	return strings.TrimPrefix(value, prefix), nil
}

// keyfuncFor returns a key-selection function for the issuer's JWK set.
// Without a TTL the set is fetched on every call. With a TTL a
// self-refreshing storage is created once per issuer and reused for the
// process lifetime; its background refresh runs at the TTL, so no
// per-request staleness check (and no second storage, with its own
// refresh goroutine) is ever needed.
func (v *Verifier) keyfuncFor(ctx context.Context, issuer string) (keyfunc.Keyfunc, error) {
	if v.cfg.KeySetTTL <= 0 {
		raw, err := v.fetchKeySet(ctx, issuer)
		if err != nil {
			return nil, err
		}
		kf, err := keyfunc.NewJWKSetJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
		}
		return kf, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if kf, ok := v.keySets[issuer]; ok {
		return kf, nil
	}

	storage, err := jwkset.NewStorageFromHTTP(jwksURL(issuer), jwkset.HTTPClientStorageOptions{
		Client:          v.client,
		Ctx:             context.Background(),
		RefreshInterval: v.cfg.KeySetTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	kf, err := keyfunc.New(keyfunc.Options{Ctx: context.Background(), Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	v.keySets[issuer] = kf
	return kf, nil
}

// fetchKeySet performs one JWK-set request against the issuer.
func (v *Verifier) fetchKeySet(ctx context.Context, issuer string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL(issuer), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrKeySetUnavailable, resp.StatusCode, issuer)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	return raw, nil
}

func jwksURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
}
