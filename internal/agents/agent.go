// Package agents provides the population hierarchy (Person, Household,
// Neighborhood, Region, World), identifier allocation, and the per-timestep
// event steps that mutate it.
package agents

import (
	"maps"
	"slices"
)

// member is what a container needs from the agents it holds.
type member[P comparable] interface {
	comparable
	ID() ID
	Parent() P
	setParent(P)
}

// agent holds the fields shared by every agent type. P is the type of the
// owning container.
type agent[P comparable] struct {
	id      ID
	parent  P
	initial bool
	world   *World
}

// ID returns the agent's identifier.
func (a *agent[P]) ID() ID { return a.id }

// Parent returns the owning container, or the zero value when unowned.
func (a *agent[P]) Parent() P { return a.parent }

// Initial reports whether the agent was loaded at initialization.
func (a *agent[P]) Initial() bool { return a.initial }

func (a *agent[P]) setParent(p P) { a.parent = p }

// set is a keyed collection of agents that keeps each member's back-reference
// pointing at self. add and remove are the only ways ownership changes.
type set[P comparable, T member[P]] struct {
	self    P
	members map[ID]T
}

func newSet[P comparable, T member[P]](self P) set[P, T] {
	return set[P, T]{self: self, members: make(map[ID]T)}
}

// checkAdd validates an add without mutating anything.
func (s *set[P, T]) checkAdd(a T) error {
	var none P
	if _, dup := s.members[a.ID()]; dup {
		return newError(KindMembership, "add", a.ID(), "already a member")
	}
	if a.Parent() != none {
		return newError(KindMembership, "add", a.ID(), "already owned by another container")
	}
	return nil
}

// Add inserts a and points its back-reference at this container.
func (s *set[P, T]) Add(a T) error {
	if err := s.checkAdd(a); err != nil {
		return err
	}
	s.members[a.ID()] = a
	a.setParent(s.self)
	return nil
}

// Remove takes a out of the container and clears its back-reference.
func (s *set[P, T]) Remove(a T) error {
	var none P
	cur, ok := s.members[a.ID()]
	if !ok {
		return newError(KindMembership, "remove", a.ID(), "not a member")
	}
	if cur != a || a.Parent() != s.self {
		return newError(KindMembership, "remove", a.ID(), "back-reference does not match container")
	}
	delete(s.members, a.ID())
	a.setParent(none)
	return nil
}

// Get looks up a member by identifier.
func (s *set[P, T]) Get(id ID) (T, bool) {
	a, ok := s.members[id]
	return a, ok
}

// Has reports whether a is a member.
func (s *set[P, T]) Has(a T) bool {
	cur, ok := s.members[a.ID()]
	return ok && cur == a
}

// Len returns the number of members.
func (s *set[P, T]) Len() int { return len(s.members) }

// IDs returns member identifiers in ascending order.
func (s *set[P, T]) IDs() []ID {
	return slices.Sorted(maps.Keys(s.members))
}

// Members returns a snapshot of the members in ascending identifier order.
// Every event step iterates through this, so the order fixes the sequence of
// random draws.
func (s *set[P, T]) Members() []T {
	ids := s.IDs()
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = s.members[id]
	}
	return out
}
