package handle

import (
	"fmt"
	"math"
	"sync"
)

// Handle is an opaque token: the high 32 bits hold the generation, the
// low 32 bits hold the slot index plus one.
type Handle uint64

// Nil is the null handle.
const Nil Handle = 0

func makeHandle(index int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() int     { return int(uint32(h)) - 1 }
func (h Handle) gen() uint32    { return uint32(h >> 32) }
func (h Handle) String() string { return fmt.Sprintf("%#x", uint64(h)) }

type slot struct {
	gen      uint32
	live     bool
	kind     Kind
	value    any
	parent   Handle
	children []Handle
}

// Registry maps handles to values. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	slots    []slot
	free     []int
	live     int
	capacity int
}

// NewRegistry returns an empty registry holding at most capacity live
// handles. A capacity of zero or less means unbounded.
func NewRegistry(capacity int) *Registry {
	return &Registry{capacity: capacity}
}

// Insert registers a root value and returns its handle. The caller owns
// the handle and must Release it.
func (r *Registry) Insert(kind Kind, value any) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(kind, value, Nil)
}

// Adopt registers value as a child of parent. The child is released
// together with its parent and cannot be released on its own.
func (r *Registry) Adopt(parent Handle, kind Kind, value any) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.slotLocked(parent); err != nil {
		return Nil, err
	}
	h, err := r.insertLocked(kind, value, parent)
	if err != nil {
		return Nil, err
	}
	// insertLocked may have grown r.slots.
	p := &r.slots[parent.index()]
	p.children = append(p.children, h)
	return h, nil
}

// Get returns the value behind h, which must be live and of the given kind.
func (r *Registry) Get(h Handle, kind Kind) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return nil, err
	}
	if s.kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s, want %s", ErrKindMismatch, h, s.kind, kind)
	}
	return s.value, nil
}

// Children returns the handles adopted by h, in adoption order.
func (r *Registry) Children(h Handle) ([]Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return nil, err
	}
	return append([]Handle(nil), s.children...), nil
}

// Release frees h and, recursively, every handle it owns. Releasing Nil
// is a no-op. Releasing an adopted child directly returns ErrOwned and
// leaves it live.
func (r *Registry) Release(h Handle, kind Kind) error {
	if h == Nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotLocked(h)
	if err != nil {
		return err
	}
	if s.kind != kind {
		return fmt.Errorf("%w: %s is a %s, want %s", ErrKindMismatch, h, s.kind, kind)
	}
	if s.parent != Nil {
		return fmt.Errorf("%w: %s", ErrOwned, h)
	}
	r.releaseLocked(h)
	return nil
}

// Live returns the number of live handles.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

func (r *Registry) insertLocked(kind Kind, value any, parent Handle) (Handle, error) {
	if r.capacity > 0 && r.live >= r.capacity {
		return Nil, fmt.Errorf("%w: %d live", ErrExhausted, r.live)
	}

	var idx int
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		if uint64(len(r.slots)) >= math.MaxUint32-1 {
			return Nil, ErrExhausted
		}
		r.slots = append(r.slots, slot{gen: 1})
		idx = len(r.slots) - 1
	}

	s := &r.slots[idx]
	s.live = true
	s.kind = kind
	s.value = value
	s.parent = parent
	s.children = nil
	r.live++
	return makeHandle(idx, s.gen), nil
}

func (r *Registry) slotLocked(h Handle) (*slot, error) {
	if h == Nil {
		return nil, ErrNilHandle
	}
	idx := h.index()
	if idx < 0 || idx >= len(r.slots) {
		return nil, fmt.Errorf("%w: %s", ErrStale, h)
	}
	s := &r.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil, fmt.Errorf("%w: %s", ErrStale, h)
	}
	return s, nil
}

// releaseLocked poisons the slot: the value is dropped and the generation
// advances so every outstanding copy of h becomes stale.
func (r *Registry) releaseLocked(h Handle) {
	idx := h.index()
	s := &r.slots[idx]
	children := s.children

	s.live = false
	s.kind = KindInvalid
	s.value = nil
	s.parent = Nil
	s.children = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	r.live--
	r.free = append(r.free, idx)

	for _, c := range children {
		r.releaseLocked(c)
	}
}

// Lookup is Get with the value asserted to T.
func Lookup[T any](r *Registry, h Handle, kind Kind) (T, error) {
	var zero T
	v, err := r.Get(h, kind)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, h, v)
	}
	return t, nil
}
