package term

import "fmt"

// Table is the fixed-size indexed slot table of §4.E: N standard
// terminals plus one splash slot at index N. At most one slot is
// "current" at any time.
type Table struct {
	slots   []*Terminal
	current int

	splashIndex int
	newTerm     func(interactive bool) *Terminal
}

// NewTable creates a table with n standard slots plus one splash slot,
// using factory to construct terminals on demand.
func NewTable(n int, factory func(interactive bool) *Terminal) *Table {
	return &Table{
		slots:       make([]*Terminal, n+1),
		splashIndex: n,
		newTerm:     factory,
	}
}

// N returns the number of standard (non-splash) slots.
func (t *Table) N() int { return len(t.slots) - 1 }

// SplashIndex returns the reserved splash slot.
func (t *Table) SplashIndex() int { return t.splashIndex }

// Get returns the terminal at slot i, or nil if empty or out of range.
func (t *Table) Get(i int) *Terminal {
	if i < 0 || i >= len(t.slots) {
		return nil
	}
	return t.slots[i]
}

// Set installs term at slot i, replacing and returning whatever was
// there (the caller is responsible for closing it).
func (t *Table) Set(i int, term *Terminal) *Terminal {
	if i < 0 || i >= len(t.slots) {
		return nil
	}
	prev := t.slots[i]
	t.slots[i] = term
	return prev
}

// GetCurrent returns the current terminal, or nil if the current index
// is a null slot.
func (t *Table) GetCurrent() *Terminal {
	return t.Get(t.current)
}

// CurrentIndex returns the current slot index.
func (t *Table) CurrentIndex() int { return t.current }

// SetCurrent installs i as the current index.
func (t *Table) SetCurrent(i int) {
	t.current = i
}

// SetCurrentToTerm finds the slot holding term and makes it current; a
// nil term resets the current index to 0, per §4.E.
func (t *Table) SetCurrentToTerm(term *Terminal) {
	if term == nil {
		t.current = 0
		return
	}
	for i, s := range t.slots {
		if s == term {
			t.current = i
			return
		}
	}
}

// CreateTerm implements the helper named in §4.E: returns the existing
// terminal for 1-based VT number vt if one exists, otherwise constructs
// a new non-interactive terminal in that slot. vt must be in [1, N].
func (t *Table) CreateTerm(vt int) (*Terminal, error) {
	if vt < 1 || vt > t.N() {
		return nil, fmt.Errorf("term: vt %d out of range [1,%d]", vt, t.N())
	}
	idx := vt - 1
	if existing := t.slots[idx]; existing != nil {
		return existing, nil
	}
	term := t.newTerm(false)
	if err := term.Init(); err != nil {
		return nil, fmt.Errorf("term: init vt %d: %w", vt, err)
	}
	t.slots[idx] = term
	return term, nil
}

// ActivateVT ensures a terminal exists in slot vt and activates it,
// deactivating whatever was previously current. Reactivating the
// already-current terminal is a no-op save for one extra mode set (L2).
func (t *Table) ActivateVT(vt int) (*Terminal, error) {
	term, err := t.CreateTerm(vt)
	if err != nil {
		return nil, err
	}
	if cur := t.GetCurrent(); cur != nil && cur != term {
		cur.Deactivate()
	}
	t.SetCurrentToTerm(term)
	if err := term.Activate(); err != nil {
		return nil, err
	}
	return term, nil
}

// ActivateSplash activates whatever terminal occupies the splash slot,
// without going through the 1-based VT numbering CreateTerm/ActivateVT
// use (the splash slot has no VT number).
func (t *Table) ActivateSplash() (*Terminal, error) {
	term := t.slots[t.splashIndex]
	if term == nil {
		return nil, fmt.Errorf("term: no splash terminal installed")
	}
	if cur := t.GetCurrent(); cur != nil && cur != term {
		cur.Deactivate()
	}
	t.SetCurrentToTerm(term)
	if err := term.Activate(); err != nil {
		return nil, err
	}
	return term, nil
}

// DeactivateCurrent clears the active flag on the current terminal
// without touching the current index.
func (t *Table) DeactivateCurrent() {
	if cur := t.GetCurrent(); cur != nil {
		cur.Deactivate()
	}
}

// Replace closes the terminal at slot i (if any) and installs
// replacement, preserving the current index if it pointed at this slot.
func (t *Table) Replace(i int, replacement *Terminal) error {
	prev := t.Set(i, replacement)
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Each calls fn for every occupied slot, in index order, including the
// splash slot.
func (t *Table) Each(fn func(i int, term *Terminal)) {
	for i, s := range t.slots {
		if s != nil {
			fn(i, s)
		}
	}
}
