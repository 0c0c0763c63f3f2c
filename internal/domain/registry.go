package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Registry is the read-only catalogue of valid corrals and their layout.
// It is safe for concurrent use because nothing mutates it after NewRegistry.
type Registry struct {
	depot   string
	ids     []string
	corrals map[string]Corral
}

func NewRegistry(depot string, corrals []Corral) (*Registry, error) {
	if len(corrals) == 0 {
		return nil, errors.New("new registry: layout must contain at least one corral")
	}

	depot = NormalizeID(depot)
	if depot == "" {
		return nil, errors.New("new registry: depot must be non-empty")
	}

	byID := make(map[string]Corral, len(corrals))
	ids := make([]string, 0, len(corrals))
	for i, c := range corrals {
		id := NormalizeID(c.ID)
		if id == "" {
			return nil, fmt.Errorf("new registry: corral at index %d has empty id", i)
		}
		if _, ok := byID[id]; ok {
			return nil, fmt.Errorf("new registry: duplicate corral id %q", id)
		}

		byID[id] = Corral{ID: id, Coordinates: c.Coordinates, IsDepot: id == depot}
		ids = append(ids, id)
	}

	if _, ok := byID[depot]; !ok {
		return nil, fmt.Errorf("new registry: depot %q is not in the layout", depot)
	}

	slices.Sort(ids)

	return &Registry{depot: depot, ids: ids, corrals: byID}, nil
}

// DefaultLayout returns the reference lot: corrals A..X in three rows of
// eight, with A as the depot.
func DefaultLayout() (string, []Corral) {
	const perRow = 8

	corrals := make([]Corral, 0, 24)
	for i := 0; i < 24; i++ {
		corrals = append(corrals, Corral{
			ID:          string(rune('A' + i)),
			Coordinates: Coordinates{X: i % perRow, Y: i / perRow},
		})
	}
	return "A", corrals
}

func NewDefaultRegistry() *Registry {
	depot, corrals := DefaultLayout()
	r, err := NewRegistry(depot, corrals)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) CoordinatesOf(id string) (Coordinates, error) {
	c, ok := r.corrals[id]
	if !ok {
		return Coordinates{}, fmt.Errorf("coordinates of %q: %w", id, ErrCorralNotFound)
	}
	return c.Coordinates, nil
}

// IDs returns every valid corral id in ascending order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

func (r *Registry) DepotID() string { return r.depot }

func (r *Registry) Contains(id string) bool {
	_, ok := r.corrals[id]
	return ok
}

// Corrals returns the full layout ordered by id.
func (r *Registry) Corrals() []Corral {
	out := make([]Corral, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.corrals[id])
	}
	return out
}
