// Package masking redacts credentials from text before it is printed, logged
// or persisted. Regex patterns and code-based maskers are organized in named
// groups; a Service applies one group.
package masking

import (
	"log/slog"
)

// Service applies a pattern group to text. Safe for concurrent use.
type Service struct {
	patterns      map[string]*CompiledPattern
	patternGroups map[string][]string
	codeMaskers   map[string]Masker
	group         string
	resolved      *resolvedPatterns
}

// NewService compiles the built-in patterns and resolves group.
// An empty group selects DefaultGroup.
func NewService(group string) *Service {
	if group == "" {
		group = DefaultGroup
	}
	s := &Service{
		patterns:      compilePatterns(builtinPatterns()),
		patternGroups: builtinPatternGroups(),
		codeMaskers:   make(map[string]Masker),
		group:         group,
	}
	s.registerMasker(&JSONSecretFieldsMasker{})
	s.resolved = s.resolveGroup(group)

	if _, ok := s.patternGroups[group]; !ok {
		slog.Warn("Unknown masking pattern group, masking disabled", "group", group)
	}
	slog.Debug("Masking service initialized",
		"group", group,
		"regex_patterns", len(s.resolved.regexPatterns),
		"code_maskers", len(s.resolved.codeMaskerNames))
	return s
}

// Groups returns the known pattern group names.
func (s *Service) Groups() []string {
	out := make([]string, 0, len(s.patternGroups))
	for name := range s.patternGroups {
		out = append(out, name)
	}
	return out
}

// Mask applies code maskers then regex patterns.
func (s *Service) Mask(text string) string {
	if text == "" || s == nil {
		return text
	}
	masked := text
	for _, name := range s.resolved.codeMaskerNames {
		m := s.codeMaskers[name]
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}
	for _, p := range s.resolved.regexPatterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}

// MaskError returns the masked error text, or "" for a nil error.
func (s *Service) MaskError(err error) string {
	if err == nil {
		return ""
	}
	return s.Mask(err.Error())
}

func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
