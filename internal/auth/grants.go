package auth

import "sort"

// Grants maps a permission key to its grant. Absent or false means not granted.
type Grants map[Key]bool

// NewGrants converts a raw permission map into Grants. Every key must be registered;
// otherwise a ValidationError naming the unknown keys is returned.
func NewGrants(raw map[string]bool) (Grants, error) {
	var (
		g       = make(Grants, len(raw))
		unknown []string
	)

	for k, v := range raw {
		key := Key(k)
		if !IsRegistered(key) {
			unknown = append(unknown, k)
			continue
		}

		g[key] = v
	}

	if len(unknown) > 0 {
		return nil, NewUnknownKeysError(unknown)
	}

	return g, nil
}

// GrantsOf returns Grants with every given key granted. Unregistered keys are rejected.
func GrantsOf(keys ...Key) (Grants, error) {
	raw := make(map[string]bool, len(keys))
	for _, k := range keys {
		raw[string(k)] = true
	}

	return NewGrants(raw)
}

// Allows applies the decision rule: only an explicit true grants.
func (g Grants) Allows(k Key) bool {
	return g[k]
}

// Clone returns an independent copy.
func (g Grants) Clone() Grants {
	out := make(Grants, len(g))
	for k, v := range g {
		out[k] = v
	}

	return out
}

// Granted returns the granted keys, sorted.
func (g Grants) Granted() []Key {
	out := make([]Key, 0, len(g))

	for k, v := range g {
		if v {
			out = append(out, k)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Raw returns the grants as a plain string map, e.g. for JSON or storage.
func (g Grants) Raw() map[string]bool {
	out := make(map[string]bool, len(g))
	for k, v := range g {
		out[string(k)] = v
	}

	return out
}
