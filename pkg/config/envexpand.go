package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands environment variables in YAML content with Go template
// syntax: {{.AZURE_SEARCH_ENDPOINT}}. Names that are not valid identifiers
// (the walkthroughs' SEARCH-ENDPOINT) use {{index . "SEARCH-ENDPOINT"}}, and
// {{or .A (index . "B")}} picks the first non-empty one.
//
// Shell-style $VAR and ${VAR} are left alone so regexes and passwords with
// literal $ survive. Missing variables expand to "". Content that is not a
// valid template is returned unchanged.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, environMap()); err != nil {
		return data
	}
	return buf.Bytes()
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
