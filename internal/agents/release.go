package agents

import (
	"cmp"
	"slices"
)

// ReleaseStore holds persons who have left their household for a while
// (migrants) and puts them back at a scheduled timestep. A person is never a
// household member and held here at the same time.
type ReleaseStore struct {
	origin map[ID]*Household
	due    map[ID]int
	queue  map[int][]*Person
}

// NewReleaseStore creates an empty store.
func NewReleaseStore() *ReleaseStore {
	return &ReleaseStore{
		origin: make(map[ID]*Household),
		due:    make(map[ID]int),
		queue:  make(map[int][]*Person),
	}
}

// Defer removes p from its household and schedules its return at step.
func (s *ReleaseStore) Defer(p *Person, step int) error {
	if _, held := s.due[p.id]; held {
		return newError(KindMembership, "defer", p.id, "already held for release")
	}
	hh := p.Household()
	if hh == nil {
		return newError(KindMembership, "defer", p.id, "not in a household")
	}
	if err := hh.Remove(p); err != nil {
		return err
	}
	s.origin[p.id] = hh
	s.due[p.id] = step
	s.queue[step] = append(s.queue[step], p)
	return nil
}

// Release returns every person scheduled for step to its original household.
// Released persons are grouped by origin household identifier. Persons
// scheduled for other steps are left alone. A dead person still queued is a
// membership error.
func (s *ReleaseStore) Release(step int) (map[ID][]*Person, error) {
	due := s.queue[step]
	delete(s.queue, step)

	released := make(map[ID][]*Person)
	for i, p := range due {
		hh := s.origin[p.id]
		var err error
		if p.Alive {
			err = hh.Add(p)
		} else {
			err = newError(KindMembership, "release", p.id, "dead person held for release")
		}
		if err != nil {
			// Keep the rest queued so the store stays consistent.
			s.queue[step] = due[i:]
			return released, err
		}
		delete(s.origin, p.id)
		delete(s.due, p.id)
		released[hh.id] = append(released[hh.id], p)
	}
	return released, nil
}

// Contains reports whether p is held.
func (s *ReleaseStore) Contains(p *Person) bool {
	_, ok := s.due[p.id]
	return ok
}

// Drop forgets p without returning it, for a person who died while away.
func (s *ReleaseStore) Drop(p *Person) error {
	step, ok := s.due[p.id]
	if !ok {
		return newError(KindMembership, "drop", p.id, "not held for release")
	}
	s.queue[step] = slices.DeleteFunc(s.queue[step], func(q *Person) bool { return q == p })
	if len(s.queue[step]) == 0 {
		delete(s.queue, step)
	}
	delete(s.origin, p.id)
	delete(s.due, p.id)
	return nil
}

// Origin returns the household p will return to.
func (s *ReleaseStore) Origin(p *Person) (*Household, bool) {
	hh, ok := s.origin[p.id]
	return hh, ok
}

// DueStep returns the step at which p is scheduled to return.
func (s *ReleaseStore) DueStep(p *Person) (int, bool) {
	step, ok := s.due[p.id]
	return step, ok
}

// Len returns the number of persons held.
func (s *ReleaseStore) Len() int { return len(s.due) }

// Persons returns held persons in ascending identifier order.
func (s *ReleaseStore) Persons() []*Person {
	out := make([]*Person, 0, len(s.due))
	for _, q := range s.queue {
		out = append(out, q...)
	}
	slices.SortFunc(out, func(a, b *Person) int { return cmp.Compare(a.id, b.id) })
	return out
}
