// Package wampid allocates client-side WAMP request identifiers: small
// unsigned integers in [1, 2^53] that stay unique while outstanding.
package wampid

// MaxID is the largest identifier a WAMP peer may allocate (2^53), the
// limit imposed by JSON numbers needing to round-trip through an IEEE
// 754 double without loss.
const MaxID = uint64(1) << 53

// Allocator yields unused identifiers and tracks which are currently
// held. It is not safe for concurrent use on its own; the session
// evaluator that owns an Allocator must guard it with the same lock it
// uses for the rest of the session record (see wampsession).
type Allocator struct {
	held map[uint64]struct{}
	next uint64
}

// New returns an Allocator with no ids held.
func New() *Allocator {
	return &Allocator{held: make(map[uint64]struct{})}
}

// NewID returns a previously-unused id in [1, MaxID] and marks it held.
// Ids are handed out sequentially, wrapping back to 1 past MaxID, and
// skipping over anything still held — this can only loop indefinitely
// if every id in the range is simultaneously outstanding, which would
// require more concurrent requests than any real session issues.
func (a *Allocator) NewID() uint64 {
	for {
		a.next++
		if a.next > MaxID {
			a.next = 1
		}
		if _, taken := a.held[a.next]; !taken {
			a.held[a.next] = struct{}{}
			return a.next
		}
	}
}

// Release removes id from the held set. Releasing an id that is not
// held is a no-op.
func (a *Allocator) Release(id uint64) {
	delete(a.held, id)
}

// Held reports how many ids are currently outstanding. Intended for
// tests and diagnostics.
func (a *Allocator) Held() int {
	return len(a.held)
}
