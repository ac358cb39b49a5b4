package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceName(t *testing.T) {
	assert.Equal(t, "kor-ai-hub-3", ServiceName("https://kor-ai-hub-3.openai.azure.com/"))
	assert.Equal(t, "my-search", ServiceName("https://My-Search.search.windows.net"))
	assert.Equal(t, "bare", ServiceName("bare.openai.azure.com"))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://aoai-westeurope-01.openai.azure.com", "West Europe"},
		{"https://aoai-eastus2.openai.azure.com", "East US 2"},
		{"https://aoai-eastus.openai.azure.com", "East US"},
		{"https://contoso-southcentralus.openai.azure.com", "South Central US"},
		{"https://contoso-centralus.openai.azure.com", "Central US"},
		{"https://kor-ai-hub-3.openai.azure.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.endpoint))
		})
	}
}

func TestSupportsResponsesAPI(t *testing.T) {
	assert.True(t, SupportsResponsesAPI("westeurope"))
	assert.True(t, SupportsResponsesAPI("West Europe"))
	assert.True(t, SupportsResponsesAPI("west europe"))
	assert.False(t, SupportsResponsesAPI("koreacentral"))
	assert.False(t, SupportsResponsesAPI("Mars North"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "UK South", Normalize("uksouth"))
	assert.Equal(t, "UK South", Normalize("uk south"))
	assert.Equal(t, "Mars North", Normalize("Mars North"))
}

func TestIsOpenAIEndpoint(t *testing.T) {
	assert.True(t, IsOpenAIEndpoint("https://x.openai.azure.com"))
	assert.True(t, IsOpenAIEndpoint("https://x.cognitiveservices.azure.com/"))
	assert.False(t, IsOpenAIEndpoint("https://x.search.windows.net"))
}

func TestResponsesRegions(t *testing.T) {
	regions := ResponsesRegions()
	assert.Len(t, regions, 7)
	assert.IsIncreasing(t, regions)
	for _, r := range EuropeanAlternatives() {
		assert.Contains(t, regions, r)
	}
}
