package cpu

import (
	"errors"
	"fmt"
)

// SpaceRoot is the hardware handle to an address-space translation root.
// Zero is never a valid root.
type SpaceRoot uint64

// Allocation failures surfaced by SpaceAllocator. The scheduler wraps these
// into its own admission errors.
var (
	ErrSpacesExhausted = errors.New("address spaces exhausted")
	ErrSpaceReleased   = errors.New("address space already released")
)

// AddressSpace owns one translation root. Exactly one descriptor owns an
// AddressSpace at a time and it is released exactly once, at termination.
type AddressSpace struct {
	root     SpaceRoot
	released bool
}

// Root returns the translation root handle, or zero after release.
func (s *AddressSpace) Root() SpaceRoot {
	if s.released {
		return 0
	}
	return s.root
}

// SpaceAllocator hands out address spaces from a fixed-capacity pool.
//
// Thread-safety: NOT thread-safe. The owning scheduler serializes all calls.
type SpaceAllocator struct {
	capacity int
	live     int
	nextRoot SpaceRoot
	releases uint64
}

// NewSpaceAllocator creates an allocator holding at most capacity live
// address spaces. Panics if capacity is not positive.
func NewSpaceAllocator(capacity int) *SpaceAllocator {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewSpaceAllocator: capacity must be positive, got %d", capacity))
	}
	return &SpaceAllocator{capacity: capacity}
}

// Allocate reserves a fresh address space with a unique root.
// Returns ErrSpacesExhausted when the pool is full.
func (a *SpaceAllocator) Allocate() (*AddressSpace, error) {
	if a.live >= a.capacity {
		return nil, fmt.Errorf("%w: %d live", ErrSpacesExhausted, a.live)
	}
	a.live++
	a.nextRoot++
	return &AddressSpace{root: a.nextRoot}, nil
}

// Release destroys an address space, returning its slot to the pool.
// Releasing twice returns ErrSpaceReleased and does not change the pool.
func (a *SpaceAllocator) Release(s *AddressSpace) error {
	if s == nil {
		return fmt.Errorf("%w: nil space", ErrSpaceReleased)
	}
	if s.released {
		return fmt.Errorf("%w: root %d", ErrSpaceReleased, s.root)
	}
	s.released = true
	a.live--
	a.releases++
	return nil
}

// Live reports the number of currently allocated address spaces.
func (a *SpaceAllocator) Live() int { return a.live }

// Releases reports the total number of successful releases.
func (a *SpaceAllocator) Releases() uint64 { return a.releases }
