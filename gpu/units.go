package gpu

import "fmt"

// UnitAllocator hands out texture units. Reserved units are owned by one caller for
// good. Shared units come from a single range at the top of the budget that every
// caller may use; a caller binds its texture to a shared unit right before sampling and
// never expects it to survive another caller's passes. Unit InputUnit is never handed
// out.
type UnitAllocator struct {
	next   int
	max    int
	shared int
}

func NewUnitAllocator(max int) *UnitAllocator {
	return &UnitAllocator{next: InputUnit + 1, max: max}
}

// Reserve returns n consecutive units and panics when the device has fewer left.
func (ua *UnitAllocator) Reserve(n int) []int {
	if n <= 0 {
		return nil
	}
	if ua.next+n > ua.max-ua.shared {
		panic(fmt.Errorf("reserve %d units at %d of %d (%d shared): %w", n, ua.next, ua.max, ua.shared, ErrUnitsExceed))
	}
	units := make([]int, n)
	for i := range units {
		units[i] = ua.next + i
	}
	ua.next += n
	return units
}

// One is Reserve(1)[0].
func (ua *UnitAllocator) One() int {
	return ua.Reserve(1)[0]
}

// Shared returns n units of the shared range, growing it when needed. Two callers asking
// for shared units get overlapping ranges.
func (ua *UnitAllocator) Shared(n int) []int {
	if n <= 0 {
		return nil
	}
	if n > ua.shared {
		if ua.next+n > ua.max {
			panic(fmt.Errorf("share %d units with %d of %d reserved: %w", n, ua.next, ua.max, ErrUnitsExceed))
		}
		ua.shared = n
	}
	units := make([]int, n)
	for i := range units {
		units[i] = ua.max - n + i
	}
	return units
}

// Used is the first unit not reserved.
func (ua *UnitAllocator) Used() int {
	return ua.next
}

// SharedCount is the size of the shared range.
func (ua *UnitAllocator) SharedCount() int {
	return ua.shared
}

func (ua *UnitAllocator) Max() int {
	return ua.max
}
