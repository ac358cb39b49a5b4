package scenario

import (
	"fmt"
	"sort"

	"github.com/codeready-toolchain/searchctl/pkg/config"
)

// Definition describes a scenario and how to build it.
type Definition struct {
	Name        string
	Description string
	// Requires lists config sections that must be filled in.
	Requires []config.Component
	// Needs lists clients that must be present in Deps.
	Needs []Dependency
	Build func(d *Deps) *Scenario
}

// Registry holds scenario definitions keyed by name.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry creates a registry with defs.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.Name] = d
	}
	return r
}

// DefaultRegistry holds every built-in scenario.
func DefaultRegistry() *Registry {
	return NewRegistry(
		envCheckDefinition(),
		connectionDefinition(),
		quickstartDefinition(),
		permissionsPushDefinition(),
		permissionsPullDefinition(),
		agenticRetrievalDefinition(),
		cmkDefinition(),
		regionDefinition(),
		whoamiDefinition(),
	)
}

// Get returns the definition for name.
func (r *Registry) Get(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build resolves name and constructs its scenario after checking that the
// configuration and clients it needs are present.
func (r *Registry) Build(name string, d *Deps) (*Scenario, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrScenarioNotFound, name)
	}
	if d.Config == nil {
		return nil, fmt.Errorf("scenario %s: configuration is required", name)
	}
	if err := d.Config.Require(def.Requires...); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	for _, dep := range def.Needs {
		if !d.has(dep) {
			return nil, fmt.Errorf("scenario %s: %s client is not configured", name, dep)
		}
	}
	sc := def.Build(d)
	sc.Name = def.Name
	sc.Description = def.Description
	sc.Requires = def.Requires
	return sc, nil
}
