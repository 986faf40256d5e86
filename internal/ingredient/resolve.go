package ingredient

import "sort"

// Universe is the deduplicated set of canonical ingredient names gathered
// from all sources. The zero value is not usable; call NewUniverse.
type Universe struct {
	names map[string]struct{}
}

// NewUniverse returns an empty Universe.
func NewUniverse() *Universe {
	return &Universe{names: make(map[string]struct{})}
}

// Add normalizes raw and records it. It reports whether a new name was added.
func (u *Universe) Add(raw string) bool {
	name, ok := Normalize(raw)
	if !ok {
		return false
	}
	if _, seen := u.names[name]; seen {
		return false
	}
	u.names[name] = struct{}{}
	return true
}

// AddPtr is Add for optional values.
func (u *Universe) AddPtr(raw *string) bool {
	if raw == nil {
		return false
	}
	return u.Add(*raw)
}

// AddList splits list on commas and adds every piece. It returns the number
// of new names.
func (u *Universe) AddList(list string) int {
	added := 0
	for _, p := range Split(list) {
		if u.Add(p) {
			added++
		}
	}
	return added
}

// Contains reports whether the canonical name is in the universe.
func (u *Universe) Contains(name string) bool {
	_, ok := u.names[name]
	return ok
}

// Len returns the number of distinct names.
func (u *Universe) Len() int { return len(u.names) }

// Names returns the names in sorted order. Identity is by name, so the order
// only keeps inserts deterministic.
func (u *Universe) Names() []string {
	out := make([]string, 0, len(u.names))
	for n := range u.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Index maps canonical ingredient names to their stored ids. It is built
// once after the ingredient phase so linking never round-trips to the store
// per mention.
type Index map[string]int64

// ID returns the id for an already canonical name.
func (ix Index) ID(name string) (int64, bool) {
	id, ok := ix[name]
	return id, ok
}

// Lookup normalizes raw and returns the matching id.
func (ix Index) Lookup(raw string) (int64, bool) {
	name, ok := Normalize(raw)
	if !ok {
		return 0, false
	}
	return ix.ID(name)
}

// LookupPtr is Lookup for optional values.
func (ix Index) LookupPtr(raw *string) (int64, bool) {
	if raw == nil {
		return 0, false
	}
	return ix.Lookup(*raw)
}
