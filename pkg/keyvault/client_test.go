package keyvault

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

const kid = "https://vault.example/keys/search-cmk/4f2a"

// fakeKeys "wraps" by reversing bytes so unwrap can undo it.
type fakeKeys struct {
	t       *testing.T
	enabled bool
	corrupt bool
	getErr  error
	calls   []string
}

func reverse(b []byte) []byte {
	out := slices.Clone(b)
	slices.Reverse(out)
	return out
}

func (f *fakeKeys) GetKey(_ context.Context, name, version string, _ *azkeys.GetKeyOptions) (azkeys.GetKeyResponse, error) {
	f.calls = append(f.calls, "get "+name+"/"+version)
	if f.getErr != nil {
		return azkeys.GetKeyResponse{}, f.getErr
	}
	id := azkeys.ID(kid)
	return azkeys.GetKeyResponse{KeyBundle: azkeys.KeyBundle{
		Key: &azkeys.JSONWebKey{
			KID:    &id,
			Kty:    to.Ptr(azkeys.KeyTypeRSA),
			KeyOps: []*azkeys.KeyOperation{to.Ptr(azkeys.KeyOperationWrapKey), to.Ptr(azkeys.KeyOperationUnwrapKey)},
		},
		Attributes: &azkeys.KeyAttributes{Enabled: to.Ptr(f.enabled)},
	}}, nil
}

func (f *fakeKeys) WrapKey(_ context.Context, name, version string, params azkeys.KeyOperationParameters, _ *azkeys.WrapKeyOptions) (azkeys.WrapKeyResponse, error) {
	f.calls = append(f.calls, "wrap "+name+"/"+version)
	assert.Equal(f.t, azkeys.EncryptionAlgorithmRSAOAEP, *params.Algorithm)
	return azkeys.WrapKeyResponse{KeyOperationResult: azkeys.KeyOperationResult{Result: reverse(params.Value)}}, nil
}

func (f *fakeKeys) UnwrapKey(_ context.Context, name, version string, params azkeys.KeyOperationParameters, _ *azkeys.UnwrapKeyOptions) (azkeys.UnwrapKeyResponse, error) {
	f.calls = append(f.calls, "unwrap "+name+"/"+version)
	out := reverse(params.Value)
	if f.corrupt {
		out[0] ^= 0xff
	}
	return azkeys.UnwrapKeyResponse{KeyOperationResult: azkeys.KeyOperationResult{Result: out}}, nil
}

func TestClient_GetKey(t *testing.T) {
	t.Run("maps the key bundle", func(t *testing.T) {
		c := newClient("https://vault.example", &fakeKeys{t: t, enabled: true})

		key, err := c.GetKey(context.Background(), "search-cmk", "")
		require.NoError(t, err)
		assert.Equal(t, kid, key.Material.KID)
		assert.Equal(t, "RSA", key.Material.Type)
		assert.Equal(t, []string{"wrapKey", "unwrapKey"}, key.Material.KeyOps)
		assert.True(t, key.Attributes.Enabled)
	})

	t.Run("service errors keep their status", func(t *testing.T) {
		c := newClient("https://vault.example", &fakeKeys{t: t, getErr: &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "KeyNotFound"}})

		_, err := c.GetKey(context.Background(), "missing", "")
		assert.ErrorIs(t, err, azrest.ErrNotFound)
		assert.Contains(t, err.Error(), "KeyNotFound")
	})

	t.Run("empty bundle", func(t *testing.T) {
		key := keyFromBundle(azkeys.KeyBundle{})
		assert.Empty(t, key.Material.KID)
		assert.False(t, key.Attributes.Enabled)
	})
}

func TestClient_ValidateRoundTrip(t *testing.T) {
	t.Run("succeeds and resolves version", func(t *testing.T) {
		keys := &fakeKeys{t: t, enabled: true}
		c := newClient("https://vault.example", keys)

		version, err := c.ValidateRoundTrip(context.Background(), "search-cmk", "")
		require.NoError(t, err)
		assert.Equal(t, "4f2a", version)
		assert.Equal(t, []string{"get search-cmk/", "wrap search-cmk/4f2a", "unwrap search-cmk/4f2a"}, keys.calls)
	})

	t.Run("disabled key", func(t *testing.T) {
		keys := &fakeKeys{t: t, enabled: false}
		c := newClient("https://vault.example", keys)

		_, err := c.ValidateRoundTrip(context.Background(), "search-cmk", "")
		assert.ErrorIs(t, err, ErrKeyDisabled)
		assert.Len(t, keys.calls, 1)
	})

	t.Run("mismatch", func(t *testing.T) {
		c := newClient("https://vault.example", &fakeKeys{t: t, enabled: true, corrupt: true})

		_, err := c.ValidateRoundTrip(context.Background(), "search-cmk", "")
		assert.ErrorIs(t, err, ErrRoundTripMismatch)
	})
}

type staticCred struct{}

func (staticCred) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "t", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("https://lab.vault.azure.net", staticCred{}, http.DefaultClient)
	require.NoError(t, err)
	assert.NotNil(t, c.keys)
}

func TestKey(t *testing.T) {
	k := &Key{Material: KeyMaterial{KID: kid, KeyOps: []string{"wrapKey"}}}
	assert.Equal(t, "4f2a", k.Version())
	assert.True(t, k.Supports("wrapKey"))
	assert.False(t, k.Supports("sign"))
	assert.Empty(t, (&Key{}).Version())
}
