package masking

// Pattern is a regex masking rule.
type Pattern struct {
	Pattern     string
	Replacement string
	Description string
}

// DefaultGroup is the pattern group applied when none is configured.
const DefaultGroup = "azure"

func builtinPatterns() map[string]Pattern {
	return map[string]Pattern{
		"api_key": {
			Pattern:     `(?i)((?:api[_-]?key|admin[_-]?key|query[_-]?key)["']?\s*[:=]\s*["']?)[A-Za-z0-9_\-]{20,}`,
			Replacement: `${1}__MASKED_API_KEY__`,
			Description: "Search and OpenAI API keys",
		},
		"bearer_token": {
			Pattern:     `(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`,
			Replacement: `${1}__MASKED_TOKEN__`,
			Description: "Authorization header values",
		},
		"jwt": {
			Pattern:     `eyJ[A-Za-z0-9_-]{5,}\.eyJ[A-Za-z0-9_-]{5,}\.[A-Za-z0-9_-]*`,
			Replacement: `__MASKED_JWT__`,
			Description: "Access tokens in JWT form",
		},
		"account_key": {
			Pattern:     `(?i)(AccountKey=)[^;"'\s]+`,
			Replacement: `${1}__MASKED_ACCOUNT_KEY__`,
			Description: "Storage connection string keys",
		},
		"sas_signature": {
			Pattern:     `(?i)([?&]sig=)[^&"'\s]+`,
			Replacement: `${1}__MASKED_SIGNATURE__`,
			Description: "SAS token signatures",
		},
		"client_secret": {
			Pattern:     `(?i)((?:client[_-]?secret|password)["']?\s*[:=]\s*["']?)[^"'\s,;]{6,}`,
			Replacement: `${1}__MASKED_SECRET__`,
			Description: "Service principal secrets and passwords",
		},
	}
}

// Members reference either a regex pattern or a code masker by name.
// Order matters: bearer_token runs before jwt so a bearer header keeps its prefix.
func builtinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":   {"api_key", "client_secret"},
		"storage": {"account_key", "sas_signature"},
		"azure":   {"json_secret_fields", "api_key", "bearer_token", "jwt", "account_key", "sas_signature", "client_secret"},
	}
}
