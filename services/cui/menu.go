package cui

// Input is one decoded command byte, or one of the synthetic intercept
// signals below.
type Input byte

const (
	InputUp      Input = 'w'
	InputRight   Input = 'd'
	InputDown    Input = 's'
	InputLeft    Input = 'a'
	InputExecute Input = '\r'
	InputBack    Input = '\b'
	InputEsc     Input = 0x1b

	// Signals passed to intercept handlers in place of a key.
	SignalPreview Input = 0xFF
	SignalStart   Input = 0xFE
	SignalStop    Input = 0xFD
	SignalCancel  Input = 0xFC
)

// Lines is the three-line menu view an intercept handler may fill.
type Lines [3]string

// Cursor is a terminal position requested by an intercept handler. Leave it
// negative to keep the cursor hidden.
type Cursor struct {
	Row, Col int
}

func (c Cursor) valid() bool { return c.Row >= 0 && c.Col >= 0 }

// InterceptFunc receives raw input while its item owns the keyboard, plus
// the Preview/Start/Stop/Cancel signals.
type InterceptFunc func(in Input, lines *Lines, cur *Cursor)

// ActionFunc runs when an action item is executed; index is the item's
// position in its menu.
type ActionFunc func(index int)

// Item is a menu entry. The concrete kinds are SubMenu, Action and
// Intercept; the set is closed.
type Item interface {
	// Desc is the description line; empty for sub-menus.
	Desc() string
	execute(c *CUI, index int)
	preview(lines *Lines)
}

// SubMenu enters Menu on execute.
type SubMenu struct {
	Menu *Menu
}

func Sub(m *Menu) *SubMenu { return &SubMenu{Menu: m} }

func (s *SubMenu) Desc() string { return "" }

func (s *SubMenu) execute(c *CUI, index int) {
	c.nav.prev = append(c.nav.prev, index)
	c.nav.cur = s.Menu
	c.nav.idx = 0
}

func (s *SubMenu) preview(*Lines) {}

// Action runs Fn on execute and stays on the same menu.
type Action struct {
	Text string
	Fn   ActionFunc
}

func NewAction(desc string, fn ActionFunc) *Action { return &Action{Text: desc, Fn: fn} }

func (a *Action) Desc() string { return a.Text }

func (a *Action) execute(_ *CUI, index int) {
	if a.Fn != nil {
		a.Fn(index)
	}
}

func (a *Action) preview(*Lines) {}

// Intercept is an action that can claim raw input. Execute toggles it on;
// Execute or Esc while active turn it off again.
type Intercept struct {
	Text string
	Fn   InterceptFunc

	active bool
}

func NewIntercept(desc string, fn InterceptFunc) *Intercept {
	return &Intercept{Text: desc, Fn: fn}
}

func (it *Intercept) Desc() string { return it.Text }

// Active reports whether the item currently owns input.
func (it *Intercept) Active() bool { return it.active }

// execute is reached only when intercept handling declined the key.
func (it *Intercept) execute(*CUI, int) {}

func (it *Intercept) preview(lines *Lines) {
	if it.Fn == nil {
		return
	}
	cur := Cursor{-1, -1}
	it.Fn(SignalPreview, lines, &cur)
}

func (it *Intercept) signal(in Input, lines *Lines, cur *Cursor) {
	if it.Fn != nil {
		it.Fn(in, lines, cur)
	}
}

// backAction pops to the parent menu.
type backAction struct{}

func (backAction) Desc() string { return descBack }

func (backAction) execute(c *CUI, _ int) { c.nav.pop() }

func (backAction) preview(*Lines) {}

const (
	descHelp = "Help"
	descBack = "Back"
)

func newHelpItem() *Intercept { return NewIntercept(descHelp, helpIntercept) }

func helpIntercept(in Input, lines *Lines, _ *Cursor) {
	if in == SignalPreview {
		lines[1] = "Press Enter for Help"
		return
	}
	lines[0] = "[Arrow Keys] Navigate Menus | [Enter] Perform Action, Enter Submenu"
	lines[1] = "----------------------------|--------------------------------------"
	lines[2] = "[Esc] Return to Main Menu   | [Backspace] Return to Parent Menu"
}

// Menu is a titled list of items. Menus belong to the client that builds
// them; the CUI only keeps references while they are registered.
type Menu struct {
	Title string
	// Update is called when input is waiting for this menu tree. The client
	// is expected to call ProcessMenuUpdate from its own goroutine. Required
	// on menus passed to RegisterMenu.
	Update func()

	items  []Item
	parent *Menu
}

// NewMenu builds a top-level menu; a Help item is appended as the trailing
// entry.
func NewMenu(title string, update func(), items ...Item) *Menu {
	m := &Menu{Title: title, Update: update}
	m.adopt(items)
	m.items = append(m.items, newHelpItem())
	return m
}

// NewSubMenu builds a nested menu; a Back item is appended as the trailing
// entry.
func NewSubMenu(title string, items ...Item) *Menu {
	m := &Menu{Title: title}
	m.adopt(items)
	m.items = append(m.items, backAction{})
	return m
}

func (m *Menu) adopt(items []Item) {
	m.items = make([]Item, 0, len(items)+1)
	for _, it := range items {
		if it == nil {
			continue
		}
		if s, ok := it.(*SubMenu); ok && s.Menu != nil {
			s.Menu.parent = m
		}
		m.items = append(m.items, it)
	}
}

func (m *Menu) Len() int { return len(m.items) }

// Item returns the i-th entry, or nil when out of range.
func (m *Menu) Item(i int) Item {
	if i < 0 || i >= len(m.items) {
		return nil
	}
	return m.items[i]
}

func (m *Menu) Parent() *Menu { return m.parent }

func (m *Menu) last() Item {
	if len(m.items) == 0 {
		return nil
	}
	return m.items[len(m.items)-1]
}

func (m *Menu) setLast(it Item) {
	if len(m.items) == 0 {
		return
	}
	m.items[len(m.items)-1] = it
}

// insertAt and removeAt keep the relative order of the other entries.
func (m *Menu) insertAt(i int, it Item) {
	m.items = append(m.items, nil)
	copy(m.items[i+1:], m.items[i:])
	m.items[i] = it
}

func (m *Menu) removeAt(i int) Item {
	it := m.items[i]
	copy(m.items[i:], m.items[i+1:])
	m.items[len(m.items)-1] = nil
	m.items = m.items[:len(m.items)-1]
	return it
}

func (m *Menu) indexOfSub(sub *Menu) int {
	for i, it := range m.items {
		if s, ok := it.(*SubMenu); ok && s.Menu == sub {
			return i
		}
	}
	return -1
}
