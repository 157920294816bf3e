package cui

import (
	"devicecui-go/errcode"
	"devicecui-go/x/logx"
)

const maxMenuDepth = 16

type menuRes struct {
	owner ClientID
	menu  *Menu
}

// navState is the menu cursor. It is owned by whoever drives input
// (ProcessMenuUpdate); registration resets it under menuMu.
type navState struct {
	main *Menu // registered root, or the multi menu
	cur  *Menu
	idx  int
	prev []int // item index to restore at each level on the way back up
}

func (n *navState) home() {
	n.cur = n.main
	n.prev = n.prev[:0]
	if n.main != nil {
		n.idx = n.main.Len() - 1
	} else {
		n.idx = 0
	}
}

// pop moves to the parent menu and restores the remembered index.
func (n *navState) pop() {
	parent := n.cur.parent
	if parent == nil {
		return
	}
	idx := -1
	if k := len(n.prev); k > 0 {
		idx = n.prev[k-1]
		n.prev = n.prev[:k-1]
	}
	if idx < 0 || idx >= parent.Len() {
		idx = parent.indexOfSub(n.cur)
	}
	if idx < 0 {
		idx = 0
	}
	n.cur = parent
	n.idx = idx
}

// back is the BACK key: pop, or go to the trailing Help item at the root.
func (n *navState) back() {
	if n.cur.parent != nil {
		n.pop()
		return
	}
	n.idx = n.cur.Len() - 1
}

// within reports whether m is root or one of its descendants by parent link.
func within(m, root *Menu) bool {
	for ; m != nil; m = m.parent {
		if m == root {
			return true
		}
	}
	return false
}

// RegisterMenu adds m to the menu tree. With two or more registered menus
// they become children of a synthetic multi menu whose trailing item is
// Help, and each child's trailing item becomes Back.
func (c *CUI) RegisterMenu(id ClientID, m *Menu) error {
	if err := c.checkUART(id); err != nil {
		return err
	}
	if m == nil || m.Len() == 0 {
		return errcode.InvalidParam
	}
	if m.Update == nil {
		return errcode.MissingUpdateFn
	}

	c.menuMu.Lock()
	defer c.menuMu.Unlock()

	free, count := -1, 0
	for i, r := range c.menus {
		if r.menu == nil {
			if free < 0 {
				free = i
			}
			continue
		}
		if r.menu == m {
			return errcode.Busy
		}
		count++
	}
	if free < 0 {
		return errcode.MaxMenusReached
	}
	c.menus[free] = menuRes{owner: id, menu: m}

	switch count {
	case 0:
		m.parent = nil
		c.nav.main = m
	case 1:
		old := c.nav.main
		c.multi.items = c.multi.items[:0]
		c.multi.Update = old.Update
		c.multi.items = append(c.multi.items, &SubMenu{Menu: old}, &SubMenu{Menu: m}, newHelpItem())
		old.parent = c.multi
		old.setLast(backAction{})
		c.nav.main = c.multi
	default:
		c.multi.insertAt(c.multi.Len()-1, &SubMenu{Menu: m})
	}
	if count > 0 {
		m.parent = c.multi
		m.setLast(backAction{})
	}

	c.nav.home()
	c.drawMenu()
	who, _ := c.ClientName(id)
	logx.Infof("cui", "menu %q registered by %q (%d total)", m.Title, who, count+1)
	return nil
}

// DeregisterMenu removes m. Going from two menus to one dissolves the multi
// menu and restores the survivor's Help item; removing the last menu clears
// the menu area.
func (c *CUI) DeregisterMenu(id ClientID, m *Menu) error {
	if err := c.checkUART(id); err != nil {
		return err
	}
	if m == nil {
		return errcode.InvalidParam
	}
	if m.Update == nil {
		return errcode.MissingUpdateFn
	}

	c.menuMu.Lock()
	defer c.menuMu.Unlock()

	slot, count := -1, 0
	for i, r := range c.menus {
		if r.menu == nil {
			continue
		}
		count++
		if slot < 0 && r.owner == id && r.menu == m {
			slot = i
		}
	}
	if slot < 0 {
		return errcode.ResourceNotAcquired
	}
	c.menus[slot] = menuRes{}

	if count == 1 {
		c.nav = navState{}
		c.clearMenuArea()
		logx.Infof("cui", "menu %q deregistered, no menus left", m.Title)
		return nil
	}

	pos := c.multi.indexOfSub(m)
	if c.multi.Len() == 3 {
		var survivor *Menu
		for _, r := range c.menus {
			if r.menu != nil {
				survivor = r.menu
				break
			}
		}
		c.multi.items = c.multi.items[:0]
		c.multi.Update = nil
		survivor.parent = nil
		survivor.setLast(newHelpItem())
		c.nav.main = survivor
		c.nav.home()
	} else {
		if pos >= 0 {
			c.multi.removeAt(pos)
		}
		switch {
		case within(c.nav.cur, m):
			c.nav.home()
		case c.nav.cur == c.multi && pos >= 0 && c.nav.idx > pos:
			c.nav.idx--
		case len(c.nav.prev) > 0 && pos >= 0 && c.nav.prev[0] > pos:
			c.nav.prev[0]--
		}
		c.nav.idx = min(c.nav.idx, c.nav.cur.Len()-1)
		if first, ok := c.multi.items[0].(*SubMenu); ok {
			c.multi.Update = first.Menu.Update
		}
	}
	m.parent = nil
	m.setLast(newHelpItem())

	c.drawMenu()
	who, _ := c.ClientName(id)
	logx.Infof("cui", "menu %q deregistered by %q", m.Title, who)
	return nil
}

// UpdateMultiMenuTitle retitles the synthetic root. It is redrawn if it is
// on screen.
func (c *CUI) UpdateMultiMenuTitle(title string) error {
	if !c.isInitialized() {
		return errcode.ModuleUninitialized
	}
	if c.p.Terminal == nil {
		return errcode.NotManagingUart
	}
	if title == "" {
		return errcode.InvalidParam
	}
	c.menuMu.Lock()
	defer c.menuMu.Unlock()
	c.multi.Title = title
	if c.nav.cur == c.multi {
		c.drawMenu()
	}
	return nil
}

// MenuNav jumps to item index of m. m must be reachable from a menu that id
// registered.
func (c *CUI) MenuNav(id ClientID, m *Menu, index int) error {
	if err := c.checkUART(id); err != nil {
		return err
	}
	if m == nil || index < 0 || index >= m.Len() {
		return errcode.InvalidParam
	}

	c.menuMu.Lock()
	defer c.menuMu.Unlock()

	for _, r := range c.menus {
		if r.menu == nil {
			continue
		}
		path, ok := findMenu(r.menu, m, nil)
		if !ok {
			continue
		}
		if r.owner != id {
			return errcode.InvalidClientHandle
		}
		prev := c.nav.prev[:0]
		if c.nav.main == c.multi {
			prev = append(prev, c.multi.indexOfSub(r.menu))
		}
		c.nav.prev = append(prev, path...)
		c.nav.cur = m
		c.nav.idx = index
		c.drawMenu()
		return nil
	}
	return errcode.InvalidParam
}

// findMenu walks root depth first. path holds the sub-menu item indices
// leading from root to target.
func findMenu(root, target *Menu, path []int) ([]int, bool) {
	if root == target {
		return path, true
	}
	if len(path) >= maxMenuDepth {
		return nil, false
	}
	for i, it := range root.items {
		s, ok := it.(*SubMenu)
		if !ok || s.Menu == nil || s.Menu == root {
			continue
		}
		if p, ok := findMenu(s.Menu, target, append(path, i)); ok {
			return p, true
		}
	}
	return nil, false
}

// Root returns the current top-level menu: the multi menu when two or more
// are registered, nil when none are.
func (c *CUI) Root() *Menu {
	c.menuMu.Lock()
	defer c.menuMu.Unlock()
	return c.nav.main
}

// Current returns the menu and item index under the cursor.
func (c *CUI) Current() (*Menu, int) {
	c.menuMu.Lock()
	defer c.menuMu.Unlock()
	return c.nav.cur, c.nav.idx
}
