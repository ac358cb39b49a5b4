package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/keyvault"
)

func cmkDefinition() Definition {
	return Definition{
		Name:        "cmk",
		Description: "Validate the customer-managed key and the search service's access to it",
		Requires:    []config.Component{config.ComponentKeyVault, config.ComponentSearch},
		Needs:       []Dependency{DepKeyVault, DepSearch},
		Build:       buildCMK,
	}
}

func buildCMK(d *Deps) *Scenario {
	kv := d.Config.KeyVault
	steps := []Step{
		{
			Name:  "Get key " + kv.KeyName,
			Fatal: true,
			Run: func(ctx context.Context, _ *State) (string, error) {
				key, err := d.KeyVault.GetKey(ctx, kv.KeyName, kv.KeyVersion)
				if err != nil {
					return "", err
				}
				detail := fmt.Sprintf("type=%s version=%s ops=%s", key.Material.Type, key.Version(), strings.Join(key.Material.KeyOps, ","))
				if !key.Attributes.Enabled {
					return detail, keyvault.ErrKeyDisabled
				}
				for _, op := range []string{"wrapKey", "unwrapKey"} {
					if !key.Supports(op) {
						return detail, fmt.Errorf("key does not permit %s", op)
					}
				}
				return detail, nil
			},
		},
		{
			Name:  "Wrap and unwrap round trip",
			Fatal: true,
			Run: func(ctx context.Context, st *State) (string, error) {
				version, err := d.KeyVault.ValidateRoundTrip(ctx, kv.KeyName, kv.KeyVersion)
				if err != nil {
					return "", err
				}
				st.Set(KeyKeyVersion, version)
				return "round trip succeeded with version " + version, nil
			},
		},
		{
			Name: "Check search service access",
			Run: func(ctx context.Context, _ *State) (string, error) {
				names, err := d.Search.ListIndexes(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d index(es) visible", len(names)), nil
			},
		},
	}

	if name := d.Config.Search.IndexName; name != "" {
		steps = append(steps, Step{
			Name: "Check encryption of index " + name,
			Run: func(ctx context.Context, st *State) (string, error) {
				idx, err := d.Search.GetIndex(ctx, name)
				if err != nil {
					return "", err
				}
				ek := idx.EncryptionKey
				if ek == nil {
					return "", fmt.Errorf("index %s has no customer-managed key", name)
				}
				detail := fmt.Sprintf("key %s version %s in %s", ek.KeyVaultKeyName, ek.KeyVaultKeyVersion, ek.KeyVaultURI)
				if ek.KeyVaultKeyName != kv.KeyName {
					return detail, fmt.Errorf("index uses key %s, expected %s", ek.KeyVaultKeyName, kv.KeyName)
				}
				return detail, nil
			},
		})
	}
	return &Scenario{Steps: steps}
}
