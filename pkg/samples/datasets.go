package samples

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/searchctl/pkg/search"
)

//go:embed data
var dataFS embed.FS

// Hotels returns the embedded quickstart hotel documents.
func Hotels() ([]search.Document, error) {
	return loadEmbedded("data/hotels.json")
}

// EarthAtNight returns the embedded knowledge-agent corpus.
func EarthAtNight() ([]search.Document, error) {
	return loadEmbedded("data/earth_at_night.json")
}

func loadEmbedded(name string) ([]search.Document, error) {
	data, err := dataFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s: %w", name, err)
	}
	return DecodeJSON(data)
}

// DecodeJSON parses a JSON array of documents. A {"value": [...]} wrapper is also accepted.
func DecodeJSON(data []byte) ([]search.Document, error) {
	var docs []search.Document
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}
	var wrapped struct {
		Value []search.Document `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return wrapped.Value, nil
}

// HotelsIndex is the index definition for the hotel documents.
func HotelsIndex(name string) *search.Index {
	t, f := search.Bool(true), search.Bool(false)
	return &search.Index{
		Name: name,
		Fields: []search.Field{
			{Name: "HotelId", Type: search.TypeString, Key: true, Filterable: t},
			{Name: "HotelName", Type: search.TypeString, Searchable: t, Sortable: t},
			{Name: "Description", Type: search.TypeString, Searchable: t, Analyzer: "en.lucene"},
			{Name: "Category", Type: search.TypeString, Searchable: t, Filterable: t, Facetable: t, Sortable: t},
			{Name: "Tags", Type: search.Collection(search.TypeString), Searchable: t, Filterable: t, Facetable: t},
			{Name: "ParkingIncluded", Type: search.TypeBoolean, Filterable: t, Facetable: t, Sortable: t},
			{Name: "LastRenovationDate", Type: search.TypeDateTimeOffset, Filterable: t, Sortable: t, Facetable: t},
			{Name: "Rating", Type: search.TypeDouble, Filterable: t, Sortable: t, Facetable: t},
			{Name: "Address", Type: search.TypeComplex, Fields: []search.Field{
				{Name: "StreetAddress", Type: search.TypeString, Searchable: t, Filterable: f},
				{Name: "City", Type: search.TypeString, Searchable: t, Filterable: t, Sortable: t, Facetable: t},
				{Name: "StateProvince", Type: search.TypeString, Searchable: t, Filterable: t, Sortable: t, Facetable: t},
				{Name: "PostalCode", Type: search.TypeString, Searchable: t, Filterable: t, Sortable: t, Facetable: t},
				{Name: "Country", Type: search.TypeString, Searchable: t, Filterable: t, Sortable: t, Facetable: t},
			}},
		},
	}
}

// EarthAtNightIndex is the index definition for the knowledge-agent corpus,
// with the semantic configuration agents require.
func EarthAtNightIndex(name string) *search.Index {
	t := search.Bool(true)
	return &search.Index{
		Name: name,
		Fields: []search.Field{
			{Name: "id", Type: search.TypeString, Key: true, Filterable: t, Sortable: t, Facetable: t},
			{Name: "page_chunk", Type: search.TypeString, Searchable: t},
			{Name: "page_number", Type: search.TypeInt32, Filterable: t, Sortable: t, Facetable: t},
		},
		Semantic: &search.SemanticConfig{
			DefaultConfiguration: "semantic_config",
			Configurations: []search.SemanticConfiguration{{
				Name: "semantic_config",
				PrioritizedFields: search.SemanticPrioritized{
					ContentFields: []search.SemanticField{{FieldName: "page_chunk"}},
				},
			}},
		},
	}
}
