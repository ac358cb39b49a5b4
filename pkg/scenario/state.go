package scenario

import (
	"fmt"
	"sync"
)

// Keys shared between steps.
const (
	KeyCallerToken = "caller_token"
	KeyCallerOID   = "caller_oid"
	KeyGroupIDs    = "group_ids"
	KeyIndexes     = "indexes"
	KeyGrounding   = "grounding"
	KeyRegion      = "region"
	KeyKeyVersion  = "key_version"
)

// State carries values produced by one step and consumed by later ones.
type State struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewState returns an empty State.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Set stores v under key.
func (s *State) Set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

// Get returns the value under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key as a string, or "" when absent.
func (s *State) String(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Strings returns the value under key as a string slice, or nil.
func (s *State) Strings(key string) []string {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	ss, _ := v.([]string)
	return ss
}
