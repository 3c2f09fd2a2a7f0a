// Package authz evaluates required permission codes against an actor's
// permission snapshot.
package authz

// Set is a permission snapshot. A nil Set means the actor's permissions
// are unknown and every non-empty requirement is denied.
type Set map[string]struct{}

// NewSet builds a Set from codes. It never returns nil, an actor with no
// permissions gets an empty set.
func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the members in no particular order.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	return out
}

// Authorize reports whether have contains every code in required. An
// empty requirement always passes, a nil snapshot fails closed.
func Authorize(required []string, have Set) bool {
	if len(required) == 0 {
		return true
	}
	if have == nil {
		return false
	}
	for _, code := range required {
		if !have.Has(code) {
			return false
		}
	}
	return true
}

// Missing returns the required codes absent from have, in order.
func Missing(required []string, have Set) []string {
	var out []string
	for _, code := range required {
		if !have.Has(code) {
			out = append(out, code)
		}
	}
	return out
}
