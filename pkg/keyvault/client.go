// Package keyvault wraps the Key Vault key operations needed to validate a
// customer-managed encryption key before an index is bound to it.
package keyvault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

// sampleKey is the 32-byte payload wrapped and unwrapped by ValidateRoundTrip.
var sampleKey = []byte("0123456789abcdef0123456789abcdef")

// ErrKeyDisabled is returned when the key exists but is not enabled.
var ErrKeyDisabled = errors.New("key is disabled")

// ErrRoundTripMismatch is returned when unwrap does not reproduce the wrapped payload.
var ErrRoundTripMismatch = errors.New("unwrapped key does not match original")

// Key is the subset of a Key Vault key bundle used here.
type Key struct {
	Material   KeyMaterial
	Attributes KeyAttributes
}

// KeyMaterial is the JSON web key part of a bundle.
type KeyMaterial struct {
	KID    string
	Type   string
	KeyOps []string
}

// KeyAttributes holds key lifecycle state.
type KeyAttributes struct {
	Enabled bool
}

// Version returns the version segment of the key identifier.
func (k *Key) Version() string {
	kid := strings.TrimRight(k.Material.KID, "/")
	if i := strings.LastIndex(kid, "/"); i >= 0 {
		return kid[i+1:]
	}
	return ""
}

// Supports reports whether the key allows op (e.g. "wrapKey").
func (k *Key) Supports(op string) bool {
	return slices.Contains(k.Material.KeyOps, op)
}

// keysAPI is the part of *azkeys.Client used here.
type keysAPI interface {
	GetKey(ctx context.Context, name, version string, opts *azkeys.GetKeyOptions) (azkeys.GetKeyResponse, error)
	WrapKey(ctx context.Context, name, version string, params azkeys.KeyOperationParameters, opts *azkeys.WrapKeyOptions) (azkeys.WrapKeyResponse, error)
	UnwrapKey(ctx context.Context, name, version string, params azkeys.KeyOperationParameters, opts *azkeys.UnwrapKeyOptions) (azkeys.UnwrapKeyResponse, error)
}

// Client talks to one vault.
type Client struct {
	keys   keysAPI
	logger *slog.Logger
}

// NewClient creates a vault client. hc replaces the SDK transport when set.
func NewClient(vaultURI string, cred azcore.TokenCredential, hc *http.Client) (*Client, error) {
	opts := &azkeys.ClientOptions{}
	if hc != nil {
		opts.Transport = hc
	}
	keys, err := azkeys.NewClient(vaultURI, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("key vault client: %w", err)
	}
	return newClient(vaultURI, keys), nil
}

func newClient(vaultURI string, keys keysAPI) *Client {
	return &Client{keys: keys, logger: slog.With("component", "keyvault", "vault", vaultURI)}
}

// GetKey fetches a key. An empty version selects the current one.
func (c *Client) GetKey(ctx context.Context, name, version string) (*Key, error) {
	resp, err := c.keys.GetKey(ctx, name, version, nil)
	if err != nil {
		return nil, fmt.Errorf("get key %s: %w", name, azrest.FromSDK(err))
	}
	return keyFromBundle(resp.KeyBundle), nil
}

func keyFromBundle(b azkeys.KeyBundle) *Key {
	key := &Key{}
	if b.Key != nil {
		if b.Key.KID != nil {
			key.Material.KID = string(*b.Key.KID)
		}
		if b.Key.Kty != nil {
			key.Material.Type = string(*b.Key.Kty)
		}
		for _, op := range b.Key.KeyOps {
			if op != nil {
				key.Material.KeyOps = append(key.Material.KeyOps, string(*op))
			}
		}
	}
	if b.Attributes != nil && b.Attributes.Enabled != nil {
		key.Attributes.Enabled = *b.Attributes.Enabled
	}
	return key
}

func wrapParams(value []byte) azkeys.KeyOperationParameters {
	return azkeys.KeyOperationParameters{
		Algorithm: to.Ptr(azkeys.EncryptionAlgorithmRSAOAEP),
		Value:     value,
	}
}

// WrapKey encrypts plaintext key material with the vault key.
func (c *Client) WrapKey(ctx context.Context, name, version string, plaintext []byte) ([]byte, error) {
	resp, err := c.keys.WrapKey(ctx, name, version, wrapParams(plaintext), nil)
	if err != nil {
		return nil, fmt.Errorf("wrap with key %s: %w", name, azrest.FromSDK(err))
	}
	return resp.Result, nil
}

// UnwrapKey reverses WrapKey.
func (c *Client) UnwrapKey(ctx context.Context, name, version string, wrapped []byte) ([]byte, error) {
	resp, err := c.keys.UnwrapKey(ctx, name, version, wrapParams(wrapped), nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap with key %s: %w", name, azrest.FromSDK(err))
	}
	return resp.Result, nil
}

// ValidateRoundTrip checks that the key is enabled and that a sample payload
// survives wrap followed by unwrap. Returns the resolved key version.
func (c *Client) ValidateRoundTrip(ctx context.Context, name, version string) (string, error) {
	key, err := c.GetKey(ctx, name, version)
	if err != nil {
		return "", err
	}
	if !key.Attributes.Enabled {
		return "", fmt.Errorf("%s: %w", name, ErrKeyDisabled)
	}
	resolved := version
	if resolved == "" {
		resolved = key.Version()
	}

	wrapped, err := c.WrapKey(ctx, name, resolved, sampleKey)
	if err != nil {
		return "", err
	}
	unwrapped, err := c.UnwrapKey(ctx, name, resolved, wrapped)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(unwrapped, sampleKey) {
		return "", ErrRoundTripMismatch
	}

	c.logger.Info("Key round trip validated", "key", name, "version", resolved)
	return resolved, nil
}
