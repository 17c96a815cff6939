package ecs

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// SearchMatch is the type of match to use for a search.
type SearchMatch string

const (
	// MatchExact matches entities that have exactly the specified components.
	MatchExact SearchMatch = "exact"
	// MatchContains matches entities that contain the specified components, but may have other
	// components as well.
	MatchContains SearchMatch = "contains"
)

// Filter selects entities by the set of components they carry.
type Filter struct {
	names []string
	match SearchMatch
}

// Contains matches entities carrying at least the given components. Pass zero values, e.g.
// ecs.Contains(component.Position{}, component.Item{}).
func Contains(components ...Component) Filter {
	return newFilter(MatchContains, components)
}

// Exact matches entities carrying exactly the given components.
func Exact(components ...Component) Filter {
	return newFilter(MatchExact, components)
}

func newFilter(match SearchMatch, components []Component) Filter {
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = c.Name()
	}
	return Filter{names: names, match: match}
}

// archetypes returns the archetypes the filter selects. A component that was never registered
// cannot be carried by any entity, so it selects nothing.
func (f Filter) archetypes(s *Store) ([]*archetype, error) {
	if len(f.names) == 0 {
		return nil, eris.New("component list cannot be empty")
	}

	var mask bitmap.Bitmap
	for _, name := range f.names {
		cid, ok := s.components.lookup(name)
		if !ok {
			return nil, nil
		}
		mask.Set(cid)
	}

	var archs []*archetype
	for _, arch := range s.archetypes {
		switch f.match {
		case MatchExact:
			if arch.exact(mask) {
				archs = append(archs, arch)
			}
		case MatchContains:
			if arch.contains(mask) {
				archs = append(archs, arch)
			}
		}
	}
	return archs, nil
}

// Search is a query over the store. The optional where clause uses expr lang, please refer to its
// documentation for more details: https://expr-lang.org/docs/getting-started. The environment
// holds each matched component under its name plus "_id", the entity index.
type Search struct {
	filter Filter
	where  *vm.Program
	err    error
}

// NewSearch creates a search for the entities selected by filter.
func NewSearch(filter Filter) *Search {
	return &Search{filter: filter}
}

// Where narrows the search with a boolean expr-lang expression, e.g. `Item.Count > 10`.
func (q *Search) Where(expression string) *Search {
	program, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		q.err = eris.Wrap(err, "failed to parse where clause")
		return q
	}
	q.where = program
	return q
}

// Each calls fn for every matching entity until fn returns false. The matched set is captured
// before the first call, so fn may add or remove components and destroy entities; entities created
// during iteration are not visited and entities destroyed during iteration are skipped.
func (q *Search) Each(s *Store, fn func(Entity) bool) error {
	matched, err := q.match(s)
	if err != nil {
		return err
	}
	for _, e := range matched {
		if !Alive(s, e) {
			continue
		}
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// Collect returns every matching entity.
func (q *Search) Collect(s *Store) ([]Entity, error) {
	return q.match(s)
}

// Count returns the number of matching entities.
func (q *Search) Count(s *Store) (int, error) {
	matched, err := q.match(s)
	return len(matched), err
}

// First returns the first matching entity, if any.
func (q *Search) First(s *Store) (Entity, bool, error) {
	var found Entity
	ok := false
	err := q.Each(s, func(e Entity) bool {
		found, ok = e, true
		return false
	})
	return found, ok, err
}

func (q *Search) match(s *Store) ([]Entity, error) {
	if q.err != nil {
		return nil, q.err
	}

	archs, err := q.filter.archetypes(s)
	if err != nil {
		return nil, eris.Wrap(err, "invalid search")
	}

	matched := make([]Entity, 0)
	for _, arch := range archs {
		if q.where == nil {
			matched = append(matched, arch.entities...)
			continue
		}
		for row, e := range arch.entities {
			output, err := expr.Run(q.where, arch.toMap(row))
			if err != nil {
				return nil, eris.Wrap(err, "failed to run filter expression")
			}
			// expr can't type check field access without an environment at compile time.
			isMatch, ok := output.(bool)
			if !ok {
				return nil, eris.New("invalid where clause")
			}
			if isMatch {
				matched = append(matched, e)
			}
		}
	}
	return matched, nil
}

// toMap converts the entity at row to the expr environment.
func (a *archetype) toMap(row int) map[string]any {
	data := make(map[string]any, a.compCount+1)
	data["_id"] = a.entities[row].index
	for _, col := range a.columns {
		data[col.name()] = col.getAbstract(row)
	}
	return data
}
