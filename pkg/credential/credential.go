// Package credential acquires bearer tokens for the Azure services the
// scenarios talk to and decodes their claims for identity diagnostics.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Well-known token scopes.
const (
	ScopeSearch             = "https://search.azure.com/.default"
	ScopeCognitiveServices  = "https://cognitiveservices.azure.com/.default"
	ScopeStorage            = "https://storage.azure.com/.default"
	ScopeGraph              = "https://graph.microsoft.com/.default"
	ScopeKeyVault           = "https://vault.azure.net/.default"
	refreshBeforeExpiration = 5 * time.Minute
	// unknownTokenLifetime is assumed for tokens without an exp claim.
	unknownTokenLifetime = 10 * time.Minute
)

// TokenProvider returns a bearer token for a scope.
type TokenProvider interface {
	Token(ctx context.Context, scope string) (string, error)
}

// AzureProvider adapts an azcore.TokenCredential to TokenProvider.
type AzureProvider struct {
	cred azcore.TokenCredential
}

// NewDefaultProvider builds a provider backed by the default Azure credential
// chain (environment, workload identity, managed identity, Azure CLI, ...).
func NewDefaultProvider() (*AzureProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create default azure credential: %w", err)
	}
	return &AzureProvider{cred: cred}, nil
}

// NewAzureProvider wraps an existing credential.
func NewAzureProvider(cred azcore.TokenCredential) *AzureProvider {
	return &AzureProvider{cred: cred}
}

// Token implements TokenProvider.
func (p *AzureProvider) Token(ctx context.Context, scope string) (string, error) {
	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
	if err != nil {
		return "", fmt.Errorf("get token for %s: %w", scope, err)
	}
	return tok.Token, nil
}

// TokenCredential adapts p for Azure SDK clients. An AzureProvider hands back
// its own credential; any other provider is wrapped.
func TokenCredential(p TokenProvider) azcore.TokenCredential {
	if ap, ok := p.(*AzureProvider); ok {
		return ap.cred
	}
	return providerCredential{provider: p}
}

type providerCredential struct {
	provider TokenProvider
}

// GetToken implements azcore.TokenCredential. Expiry comes from the token's
// exp claim, else unknownTokenLifetime from now.
func (c providerCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if len(opts.Scopes) == 0 {
		return azcore.AccessToken{}, errors.New("token request has no scope")
	}
	token, err := c.provider.Token(ctx, opts.Scopes[0])
	if err != nil {
		return azcore.AccessToken{}, err
	}
	expires := time.Now().Add(unknownTokenLifetime)
	if claims, err := DecodeClaims(token); err == nil && !claims.ExpiresAt.IsZero() {
		expires = claims.ExpiresAt
	}
	return azcore.AccessToken{Token: token, ExpiresOn: expires}, nil
}

// StaticProvider returns the same token for every scope. Used for tokens
// supplied by a caller (e.g. a forwarded user token) and in tests.
type StaticProvider string

// Token implements TokenProvider.
func (s StaticProvider) Token(_ context.Context, _ string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("static token is empty")
	}
	return string(s), nil
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// CachingProvider memoizes tokens per scope until shortly before they expire.
// Expiry comes from the token's exp claim; tokens without one are not cached.
type CachingProvider struct {
	next   TokenProvider
	now    func() time.Time
	mu     sync.Mutex
	tokens map[string]cachedToken
}

// NewCachingProvider wraps next with a per-scope cache.
func NewCachingProvider(next TokenProvider) *CachingProvider {
	return &CachingProvider{
		next:   next,
		now:    time.Now,
		tokens: make(map[string]cachedToken),
	}
}

// Token implements TokenProvider.
func (c *CachingProvider) Token(ctx context.Context, scope string) (string, error) {
	c.mu.Lock()
	if t, ok := c.tokens[scope]; ok && c.now().Before(t.expiresAt.Add(-refreshBeforeExpiration)) {
		c.mu.Unlock()
		return t.token, nil
	}
	c.mu.Unlock()

	token, err := c.next.Token(ctx, scope)
	if err != nil {
		return "", err
	}

	claims, err := DecodeClaims(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		slog.Debug("Token has no readable expiry, not caching", "scope", scope)
		return token, nil
	}

	c.mu.Lock()
	c.tokens[scope] = cachedToken{token: token, expiresAt: claims.ExpiresAt}
	c.mu.Unlock()
	return token, nil
}
