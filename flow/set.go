package flow

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

var (
	// ErrUniverseViolation is returned when an element or set does not belong
	// to the universe of a flow value system.
	ErrUniverseViolation = errors.New("value outside of universe")
	// ErrDuplicateElement is returned when a universe lists an element twice.
	ErrDuplicateElement = errors.New("duplicate universe element")
)

// === [ Universe ] ============================================================

// A Universe is the finite, ordered set of facts tracked by an analysis. Each
// element owns one bit position in the sets drawn from the universe.
type Universe struct {
	// Elements in bit order.
	elems []string
	// index maps from element to bit position.
	index map[string]uint
}

// NewUniverse returns a new universe of the given elements.
func NewUniverse(elems ...string) (*Universe, error) {
	u := &Universe{
		elems: make([]string, 0, len(elems)),
		index: make(map[string]uint, len(elems)),
	}
	for _, elem := range elems {
		if _, ok := u.index[elem]; ok {
			return nil, errors.Wrapf(ErrDuplicateElement, "element %q", elem)
		}
		u.index[elem] = uint(len(u.elems))
		u.elems = append(u.elems, elem)
	}
	return u, nil
}

// MustUniverse is like NewUniverse but panics on duplicate elements.
func MustUniverse(elems ...string) *Universe {
	u, err := NewUniverse(elems...)
	if err != nil {
		panic(fmt.Errorf("invalid universe; %v", err))
	}
	return u
}

// Len returns the number of elements in the universe.
func (u *Universe) Len() int {
	return len(u.elems)
}

// Elements returns the elements of the universe in bit order.
func (u *Universe) Elements() []string {
	return append([]string(nil), u.elems...)
}

// Has reports whether elem belongs to the universe.
func (u *Universe) Has(elem string) bool {
	_, ok := u.index[elem]
	return ok
}

// Empty returns the empty set of the universe.
func (u *Universe) Empty() Set {
	return Set{u: u, bits: bitset.New(uint(len(u.elems)))}
}

// Full returns the set of all elements of the universe.
func (u *Universe) Full() Set {
	bits := bitset.New(uint(len(u.elems)))
	for i := range u.elems {
		bits.Set(uint(i))
	}
	return Set{u: u, bits: bits}
}

// NewSet returns the set of the given elements.
func (u *Universe) NewSet(elems ...string) (Set, error) {
	s := u.Empty()
	for _, elem := range elems {
		i, ok := u.index[elem]
		if !ok {
			return Set{}, errors.Wrapf(ErrUniverseViolation, "element %q", elem)
		}
		s.bits.Set(i)
	}
	return s, nil
}

// MustSet is like NewSet but panics if an element is outside the universe.
func (u *Universe) MustSet(elems ...string) Set {
	s, err := u.NewSet(elems...)
	if err != nil {
		panic(fmt.Errorf("invalid set; %v", err))
	}
	return s
}

// String returns the elements of the universe in set notation.
func (u *Universe) String() string {
	return u.Full().String()
}

// === [ Set ] =================================================================

// A Set is an immutable subset of a universe, stored as a bit vector.
//
// The zero Set is empty and belongs to no universe; it combines with sets of
// any universe as the empty set.
type Set struct {
	u    *Universe
	bits *bitset.BitSet
}

// Universe returns the universe of the set, or nil for the zero Set.
func (s Set) Universe() *Universe {
	return s.u
}

// Len returns the number of elements in the set.
func (s Set) Len() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// IsEmpty reports whether the set has no elements.
func (s Set) IsEmpty() bool {
	return s.Len() == 0
}

// Has reports whether elem is a member of the set.
func (s Set) Has(elem string) bool {
	if s.u == nil {
		return false
	}
	i, ok := s.u.index[elem]
	return ok && s.bits.Test(i)
}

// Elements returns the members of the set in universe order.
func (s Set) Elements() []string {
	elems := make([]string, 0, s.Len())
	if s.bits == nil {
		return elems
	}
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		elems = append(elems, s.u.elems[i])
	}
	return elems
}

// Union returns the set of elements in s or t.
func (s Set) Union(t Set) Set {
	u, a, b := operands(s, t)
	if u == nil {
		return Set{}
	}
	return Set{u: u, bits: a.Union(b)}
}

// Intersect returns the set of elements in both s and t.
func (s Set) Intersect(t Set) Set {
	u, a, b := operands(s, t)
	if u == nil {
		return Set{}
	}
	return Set{u: u, bits: a.Intersection(b)}
}

// Difference returns the set of elements in s but not in t.
func (s Set) Difference(t Set) Set {
	u, a, b := operands(s, t)
	if u == nil {
		return Set{}
	}
	return Set{u: u, bits: a.Difference(b)}
}

// Equal reports whether s and t have the same elements.
func (s Set) Equal(t Set) bool {
	u, a, b := operands(s, t)
	if u == nil {
		return true
	}
	return a.SymmetricDifferenceCardinality(b) == 0
}

// SubsetOf reports whether every element of s is in t.
func (s Set) SubsetOf(t Set) bool {
	return s.Difference(t).IsEmpty()
}

// String returns the set in set notation, e.g. "{x0, x2}".
func (s Set) String() string {
	return "{" + strings.Join(s.Elements(), ", ") + "}"
}

// operands returns the common universe of s and t together with their bit
// vectors; zero Sets are widened to the empty set of the other universe.
func operands(s, t Set) (*Universe, *bitset.BitSet, *bitset.BitSet) {
	if s.u != nil && t.u != nil && s.u != t.u {
		panic(fmt.Errorf("set universe mismatch; %v and %v", s.u, t.u))
	}
	u := s.u
	if u == nil {
		u = t.u
	}
	if u == nil {
		return nil, nil, nil
	}
	a, b := s.bits, t.bits
	if a == nil {
		a = bitset.New(uint(u.Len()))
	}
	if b == nil {
		b = bitset.New(uint(u.Len()))
	}
	return u, a, b
}
