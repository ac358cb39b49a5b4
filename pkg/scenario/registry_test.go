package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/searchctl/pkg/config"
)

func TestDefaultRegistry_List(t *testing.T) {
	var names []string
	for _, d := range DefaultRegistry().List() {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
	}
	assert.Equal(t, []string{
		"agentic-retrieval",
		"cmk",
		"connection",
		"env-check",
		"permissions-pull",
		"permissions-push",
		"quickstart",
		"region",
		"whoami",
	}, names)
}

func TestRegistry_Build(t *testing.T) {
	reg := DefaultRegistry()

	t.Run("unknown scenario", func(t *testing.T) {
		_, err := reg.Build("nope", &Deps{Config: testConfig()})
		assert.ErrorIs(t, err, config.ErrScenarioNotFound)
	})

	t.Run("missing configuration", func(t *testing.T) {
		_, err := reg.Build("env-check", &Deps{})
		assert.Error(t, err)
	})

	t.Run("placeholder endpoint", func(t *testing.T) {
		cfg := testConfig()
		cfg.Search.Endpoint = "https://your-service-name.search.windows.net"
		_, err := reg.Build("quickstart", &Deps{Config: cfg, Search: newFakeSearch()})
		assert.ErrorIs(t, err, config.ErrPlaceholderValue)
	})

	t.Run("missing client", func(t *testing.T) {
		_, err := reg.Build("quickstart", &Deps{Config: testConfig()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search client is not configured")
	})

	t.Run("env-check needs nothing", func(t *testing.T) {
		cfg := testConfig()
		cfg.Search.Endpoint = ""
		sc, err := reg.Build("env-check", &Deps{Config: cfg})
		require.NoError(t, err)
		assert.Equal(t, "env-check", sc.Name)
		assert.Len(t, sc.Steps, 2)
	})

	t.Run("optional index step", func(t *testing.T) {
		cfg := testConfig()
		sc, err := reg.Build("connection", &Deps{Config: cfg, Search: newFakeSearch()})
		require.NoError(t, err)
		assert.Len(t, sc.Steps, 1)

		cfg.Search.IndexName = "hotels"
		sc, err = reg.Build("connection", &Deps{Config: cfg, Search: newFakeSearch()})
		require.NoError(t, err)
		assert.Len(t, sc.Steps, 2)
	})
}
