package types

import "strings"

// AccessEffect is the capability with which a value is observed or moved
// across a boundary.
type AccessEffect int

const (
	AccessLet AccessEffect = iota
	AccessInout
	AccessSink
	AccessSet
	AccessYielded
)

func (a AccessEffect) String() string {
	switch a {
	case AccessLet:
		return "let"
	case AccessInout:
		return "inout"
	case AccessSink:
		return "sink"
	case AccessSet:
		return "set"
	case AccessYielded:
		return "yielded"
	default:
		return "access?"
	}
}

// IsMutating reports whether the effect grants mutable access.
func (a AccessEffect) IsMutating() bool {
	return a == AccessInout || a == AccessSet
}

// AccessEffectSet is a small set of access effects, used for method
// capability sets and abstract access requests.
type AccessEffectSet uint8

// Singleton returns the set containing only a.
func Singleton(a AccessEffect) AccessEffectSet { return 1 << uint(a) }

// Inserting returns s with a added.
func (s AccessEffectSet) Inserting(a AccessEffect) AccessEffectSet {
	return s | Singleton(a)
}

// Contains reports membership of a.
func (s AccessEffectSet) Contains(a AccessEffect) bool {
	return s&Singleton(a) != 0
}

// Len returns the number of effects in the set.
func (s AccessEffectSet) Len() int {
	n := 0
	for i := AccessLet; i <= AccessYielded; i++ {
		if s.Contains(i) {
			n++
		}
	}
	return n
}

// Unique returns the sole member of a singleton set.
func (s AccessEffectSet) Unique() (AccessEffect, bool) {
	if s.Len() != 1 {
		return AccessLet, false
	}
	for i := AccessLet; i <= AccessYielded; i++ {
		if s.Contains(i) {
			return i, true
		}
	}
	return AccessLet, false
}

// Weakest returns the least demanding effect in the set, in the order
// let < inout < set < sink < yielded.
func (s AccessEffectSet) Weakest() (AccessEffect, bool) {
	for _, a := range [...]AccessEffect{AccessLet, AccessInout, AccessSet, AccessSink, AccessYielded} {
		if s.Contains(a) {
			return a, true
		}
	}
	return AccessLet, false
}

func (s AccessEffectSet) String() string {
	var parts []string
	for i := AccessLet; i <= AccessYielded; i++ {
		if s.Contains(i) {
			parts = append(parts, i.String())
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}
