package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

type resolvedPatterns struct {
	codeMaskerNames []string
	regexPatterns   []*CompiledPattern
}

// compilePatterns compiles patterns. Invalid ones are logged and skipped.
func compilePatterns(patterns map[string]Pattern) map[string]*CompiledPattern {
	out := make(map[string]*CompiledPattern, len(patterns))
	for name, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			slog.Error("Failed to compile masking pattern, skipping", "pattern", name, "error", err)
			continue
		}
		out[name] = &CompiledPattern{
			Name:        name,
			Regex:       re,
			Replacement: p.Replacement,
			Description: p.Description,
		}
	}
	return out
}

// resolveGroup expands a group into deduplicated code maskers and regex patterns.
// Unknown members are ignored.
func (s *Service) resolveGroup(group string) *resolvedPatterns {
	resolved := &resolvedPatterns{}
	seen := make(map[string]bool)
	for _, name := range s.patternGroups[group] {
		if seen[name] {
			continue
		}
		seen[name] = true

		if _, ok := s.codeMaskers[name]; ok {
			resolved.codeMaskerNames = append(resolved.codeMaskerNames, name)
			continue
		}
		if cp, ok := s.patterns[name]; ok {
			resolved.regexPatterns = append(resolved.regexPatterns, cp)
		}
	}
	return resolved
}
