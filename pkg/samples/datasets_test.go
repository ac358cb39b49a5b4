package samples

import (
	"testing"

	"github.com/codeready-toolchain/searchctl/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedDatasets(t *testing.T) {
	hotels, err := Hotels()
	require.NoError(t, err)
	require.Len(t, hotels, 4)
	assert.Equal(t, "Stay-Kay City Hotel", hotels[0]["HotelName"])

	pages, err := EarthAtNight()
	require.NoError(t, err)
	require.NotEmpty(t, pages)
	for _, p := range pages {
		assert.NotEmpty(t, p["id"])
		assert.NotEmpty(t, p["page_chunk"])
	}
}

func TestIndexDefinitions(t *testing.T) {
	hotels := HotelsIndex("hotels-quickstart")
	assert.Equal(t, "hotels-quickstart", hotels.Name)
	assert.True(t, hotels.Fields[0].Key)
	assert.Equal(t, "HotelId", hotels.Fields[0].Name)
	assert.False(t, hotels.HasPermissionFilters())

	earth := EarthAtNightIndex("earth-at-night")
	require.NotNil(t, earth.Semantic)
	assert.Equal(t, "semantic_config", earth.Semantic.DefaultConfiguration)
}

func TestDecodeJSON(t *testing.T) {
	docs, err := DecodeJSON([]byte(`{"value":[{"id":"1"},{"id":"2"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []search.Document{{"id": "1"}, {"id": "2"}}, docs)

	_, err = DecodeJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestCSVDocuments(t *testing.T) {
	t.Run("synthetic key", func(t *testing.T) {
		data := []byte("\ufeffName, County\nSilver Falls,Marion\nSmith Rock,Deschutes\n")
		docs, err := CSVDocuments(data, "id")
		require.NoError(t, err)
		assert.Equal(t, []search.Document{
			{"Name": "Silver Falls", "County": "Marion", "id": "1"},
			{"Name": "Smith Rock", "County": "Deschutes", "id": "2"},
		}, docs)
	})

	t.Run("existing key column", func(t *testing.T) {
		docs, err := CSVDocuments([]byte("id,Name\np1,Cape Lookout\n"), "id")
		require.NoError(t, err)
		assert.Equal(t, []search.Document{{"id": "p1", "Name": "Cape Lookout"}}, docs)
	})

	t.Run("short rows", func(t *testing.T) {
		docs, err := CSVDocuments([]byte("a,b,c\n1,2\n"), "")
		require.NoError(t, err)
		assert.Equal(t, []search.Document{{"a": "1", "b": "2"}}, docs)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := CSVDocuments(nil, "id")
		assert.ErrorIs(t, err, ErrEmptyCSV)
	})
}
