// Package registry maps domain identifiers to factories producing top
// values of the corresponding domain.
package registry

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/invariant/analysis/absval"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	// ErrUnknownDomain is returned when no factory is bound to an identifier.
	ErrUnknownDomain = errors.New("unknown abstract domain")
	errDuplicate     = errors.New("domain registered twice")
)

// Factory produces the top value of a domain.
type Factory func() absval.Value

// Registry binds domain identifiers to factories.
type Registry struct {
	factories map[absval.Tag]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[absval.Tag]Factory)}
}

// Register binds id to f. Every identifier may only be bound once.
func (r *Registry) Register(id absval.Tag, f Factory) error {
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("%w: %s", errDuplicate, id)
	}
	r.factories[id] = f
	return nil
}

// Has checks whether id is bound.
func (r *Registry) Has(id absval.Tag) bool {
	_, ok := r.factories[id]
	return ok
}

// Top returns the top value of the domain bound to id.
func (r *Registry) Top(id absval.Tag) (absval.Value, error) {
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, id)
	}
	return f(), nil
}

// Lookup resolves a domain by name.
func (r *Registry) Lookup(name string) (absval.Tag, error) {
	id, ok := absval.ParseTag(name)
	if !ok || !r.Has(id) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
	return id, nil
}

// IDs returns the bound identifiers in tag order.
func (r *Registry) IDs() []absval.Tag {
	ids := maps.Keys(r.factories)
	slices.Sort(ids)
	return ids
}

// Default returns a registry with every compiled-in domain.
func Default() *Registry {
	r := New()
	for _, tag := range absval.Tags() {
		tag := tag
		if err := r.Register(tag, func() absval.Value { return absval.Top(tag) }); err != nil {
			panic(err)
		}
	}
	return r
}
