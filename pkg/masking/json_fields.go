package masking

import (
	"encoding/json"
	"strings"
)

// MaskedFieldValue replaces the value of a secret JSON field.
const MaskedFieldValue = "__MASKED__"

// secretFieldNames are matched case-insensitively against JSON object keys.
var secretFieldNames = map[string]bool{
	"connectionstring": true,
	"apikey":           true,
	"api-key":          true,
	"api_key":          true,
	"clientsecret":     true,
	"client_secret":    true,
	"password":         true,
	"accesstoken":      true,
	"access_token":     true,
	"refresh_token":    true,
	"sastoken":         true,
}

// JSONSecretFieldsMasker masks the values of well-known secret fields in JSON
// payloads (data source credentials, token responses) while keeping the rest
// of the document intact.
type JSONSecretFieldsMasker struct{}

// Name implements Masker.
func (m *JSONSecretFieldsMasker) Name() string { return "json_secret_fields" }

// AppliesTo implements Masker.
func (m *JSONSecretFieldsMasker) AppliesTo(data string) bool {
	trimmed := strings.TrimSpace(data)
	return len(trimmed) > 1 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Mask implements Masker. Output is compact JSON when anything was masked.
func (m *JSONSecretFieldsMasker) Mask(data string) string {
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return data
	}
	if !maskFields(doc) {
		return data
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return data
	}
	return string(out)
}

func maskFields(v any) bool {
	changed := false
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if _, isString := val.(string); isString && secretFieldNames[strings.ToLower(k)] {
				if val != "" {
					t[k] = MaskedFieldValue
					changed = true
				}
				continue
			}
			if maskFields(val) {
				changed = true
			}
		}
	case []any:
		for _, item := range t {
			if maskFields(item) {
				changed = true
			}
		}
	}
	return changed
}
