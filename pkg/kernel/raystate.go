package kernel

import "fmt"

// RayState is the primary state of a ray slot. Exactly one is active per slot.
type RayState uint8

const (
	RayInactive RayState = iota
	RayActive
	RayRegenerated
	RayUpdateBuffer
	RayHitBackground
	RayToRegenerate
	numRayStates
)

func (s RayState) String() string {
	switch s {
	case RayInactive:
		return "inactive"
	case RayActive:
		return "active"
	case RayRegenerated:
		return "regenerated"
	case RayUpdateBuffer:
		return "update_buffer"
	case RayHitBackground:
		return "hit_background"
	case RayToRegenerate:
		return "to_regenerate"
	default:
		return fmt.Sprintf("RayState(%d)", uint8(s))
	}
}

// RayFlag annotates a slot on top of its primary state. Flags are added by the
// stage that defers work and cleared by the stage that consumes it.
type RayFlag uint8

const (
	FlagShadowRayCastAO RayFlag = 1 << iota
	FlagShadowRayCastDL

	FlagNone RayFlag = 0
)

func (f RayFlag) String() string {
	switch f {
	case FlagNone:
		return "none"
	case FlagShadowRayCastAO:
		return "shadow_ray_cast_ao"
	case FlagShadowRayCastDL:
		return "shadow_ray_cast_dl"
	case FlagShadowRayCastAO | FlagShadowRayCastDL:
		return "shadow_ray_cast_ao|shadow_ray_cast_dl"
	default:
		return fmt.Sprintf("RayFlag(%#x)", uint8(f))
	}
}

// flagShift positions flags above the primary state bits in the packed view
const flagShift = 4

// StateArray holds the primary state and flag set of every ray slot as two
// parallel arrays. A slot is only written by the thread currently processing
// it, so no per-slot synchronization is needed.
type StateArray struct {
	primary []RayState
	flags   []RayFlag
}

// NewStateArray creates a state array with every slot inactive and unflagged
func NewStateArray(capacity int) *StateArray {
	return &StateArray{
		primary: make([]RayState, capacity),
		flags:   make([]RayFlag, capacity),
	}
}

// Len returns the number of slots
func (s *StateArray) Len() int {
	return len(s.primary)
}

// IsState reports whether the slot's primary state equals state. Flags never
// take part in the comparison.
func (s *StateArray) IsState(slot int, state RayState) bool {
	return s.primary[slot] == state
}

// State returns the slot's primary state
func (s *StateArray) State(slot int) RayState {
	return s.primary[slot]
}

// SetState replaces the primary state and leaves the flags untouched
func (s *StateArray) SetState(slot int, state RayState) {
	s.primary[slot] = state
}

// AddFlag ORs flag onto the slot
func (s *StateArray) AddFlag(slot int, flag RayFlag) {
	s.flags[slot] |= flag
}

// HasFlag reports whether every bit of flag is set on the slot
func (s *StateArray) HasFlag(slot int, flag RayFlag) bool {
	return s.flags[slot]&flag == flag
}

// ClearFlag removes flag from the slot
func (s *StateArray) ClearFlag(slot int, flag RayFlag) {
	s.flags[slot] &^= flag
}

// Flags returns the slot's flag set
func (s *StateArray) Flags(slot int) RayFlag {
	return s.flags[slot]
}

// Packed returns the single-byte view of a slot (state | flags<<4), the layout
// handed to consumers that expect one state byte per ray.
func (s *StateArray) Packed(slot int) uint8 {
	return uint8(s.primary[slot]) | uint8(s.flags[slot])<<flagShift
}

// Reset marks every slot inactive and clears all flags
func (s *StateArray) Reset() {
	clear(s.primary)
	clear(s.flags)
}

// Count returns how many slots are in the given primary state
func (s *StateArray) Count(state RayState) int {
	n := 0
	for _, st := range s.primary {
		if st == state {
			n++
		}
	}
	return n
}
