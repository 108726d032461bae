package hooks

// SlotKind tags each slot with the hook that created it so that a reordered
// or conditional hook call is detected instead of misreading stored state.
type SlotKind uint8

const (
	SlotState SlotKind = iota + 1
	SlotRef
	SlotMemo
	SlotCallback
	SlotEffect
	SlotLayoutEffect
)

func (k SlotKind) String() string {
	switch k {
	case SlotState:
		return "state"
	case SlotRef:
		return "ref"
	case SlotMemo:
		return "memo"
	case SlotCallback:
		return "callback"
	case SlotEffect:
		return "effect"
	case SlotLayoutEffect:
		return "layout_effect"
	default:
		return "unknown"
	}
}

// ParseSlotKind converts a string representation into the corresponding
// SlotKind. Returns 0 for unrecognised values.
func ParseSlotKind(value string) SlotKind {
	switch value {
	case "state":
		return SlotState
	case "ref":
		return SlotRef
	case "memo":
		return SlotMemo
	case "callback":
		return SlotCallback
	case "effect":
		return SlotEffect
	case "layout_effect":
		return SlotLayoutEffect
	default:
		return 0
	}
}

// slot is one persisted unit of hook state.
//
//	state, ref      -> value
//	memo, callback  -> value, deps
//	effect kinds    -> cleanup, deps
type slot struct {
	kind    SlotKind
	value   any
	deps    Deps
	cleanup Cleanup
	// committed is set once deps have been handed to the scheduler (effects) or
	// computed (memos). Slots created by an aborted pass stay uncommitted.
	committed bool
}

// slotStore is the ordered slot sequence of one instance plus the transient
// cursor of the render pass in progress.
type slotStore struct {
	slots  []*slot
	cursor int
	// sealed is set after the first committed render. From then on the slot
	// layout is fixed.
	sealed bool
}

func newSlotStore() *slotStore {
	return &slotStore{}
}

// reset rewinds the cursor. It is called once per pass, before the component
// body runs.
func (s *slotStore) reset() {
	s.cursor = 0
}

// readOrInit returns the slot at the cursor, creating it with init when the
// index has never been written.
func (s *slotStore) readOrInit(kind SlotKind, init func() *slot) (*slot, error) {
	if s.cursor < len(s.slots) {
		current := s.slots[s.cursor]
		if current.kind != kind {
			return nil, &HookOrderError{Index: s.cursor, Want: current.kind, Got: kind}
		}
		return current, nil
	}
	if s.sealed {
		return nil, &HookOrderError{Index: s.cursor, Got: kind, Reason: "more hooks than during the previous render"}
	}
	created := init()
	created.kind = kind
	s.slots = append(s.slots, created)
	return created, nil
}

// advance moves the cursor past the slot consumed by the current hook.
func (s *slotStore) advance() {
	s.cursor++
}

// write replaces the slot at index. Setters use it with their captured index.
func (s *slotStore) write(index int, value *slot) {
	if index < 0 || index >= len(s.slots) {
		return
	}
	s.slots[index] = value
}

func (s *slotStore) at(index int) (*slot, bool) {
	if index < 0 || index >= len(s.slots) {
		return nil, false
	}
	return s.slots[index], true
}

// finish validates the slot count once the component body has returned.
func (s *slotStore) finish() error {
	if s.sealed && s.cursor != len(s.slots) {
		return &HookOrderError{Index: s.cursor, Reason: "fewer hooks than during the previous render"}
	}
	return nil
}

func (s *slotStore) seal() {
	s.sealed = true
}

func (s *slotStore) len() int {
	return len(s.slots)
}
