package agents

// ID is a non-negative identifier, unique within one agent type.
type ID int64

// NoID marks an absent relationship (no spouse, unknown parent).
const NoID ID = -1

// IDAllocator issues identifiers for one agent type. An identifier is never
// handed out twice, whether it was issued by Next or claimed through Use.
type IDAllocator struct {
	used map[ID]struct{}
	// every id below next is known to be used.
	next ID
}

// NewIDAllocator creates an empty allocator.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{used: make(map[ID]struct{})}
}

// Next returns the smallest unused identifier and marks it used.
func (a *IDAllocator) Next() ID {
	for {
		if _, taken := a.used[a.next]; !taken {
			break
		}
		a.next++
	}
	id := a.next
	a.used[id] = struct{}{}
	a.next++
	return id
}

// Use claims an externally chosen identifier.
func (a *IDAllocator) Use(id ID) error {
	if id < 0 {
		return newError(KindDomain, "use id", id, "identifiers must be non-negative")
	}
	if _, taken := a.used[id]; taken {
		return newError(KindCollision, "use id", id, "identifier already in use")
	}
	a.used[id] = struct{}{}
	return nil
}

// InUse reports whether id has been issued or claimed.
func (a *IDAllocator) InUse(id ID) bool {
	_, ok := a.used[id]
	return ok
}

// Reset forgets every issued identifier.
func (a *IDAllocator) Reset() {
	a.used = make(map[ID]struct{})
	a.next = 0
}
