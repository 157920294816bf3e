package cui

import (
	"strconv"

	"devicecui-go/x/logx"
	"devicecui-go/x/strx"
)

// drawMenu renders the item under the cursor: a title line, an optional
// preview from interceptable items, and the description line.
func (c *CUI) drawMenu() {
	n := &c.nav
	if n.cur == nil {
		return
	}
	item := n.cur.Item(n.idx)
	if item == nil {
		return
	}
	lines := &c.lines
	*lines = Lines{}

	switch {
	case n.cur == n.main:
		lines[0] = n.cur.Title
	case n.idx != n.cur.Len()-1:
		// Back items keep the first line blank.
		m := n.cur
		for m.parent != nil && m.parent != c.multi {
			m = m.parent
		}
		lines[0] = m.Title
	}

	item.preview(lines)

	if d := item.Desc(); d != "" {
		lines[2] = d
	} else if s, ok := item.(*SubMenu); ok && s.Menu != nil {
		lines[2] = s.Menu.Title
	}
	c.drawLines(*lines)
}

// drawLines writes a full menu frame.
func (c *CUI) drawLines(lines Lines) {
	buf, ok := c.menuPool.borrow()
	if !ok {
		logx.Debugf("cui", "menu frame dropped: no free buffer")
		return
	}
	buf = c.appendMenuHead(buf)
	buf = append(buf, menuStart)
	for i, l := range lines {
		if i > 0 {
			buf = append(buf, nlcr...)
		}
		buf = append(buf, strx.Fit(l, c.p.LineWidth)...)
	}
	buf = append(buf, frameEnd)
	if err := c.p.Terminal.WriteFrame(c.menuPool.frame(buf)); err != nil {
		logx.Debugf("cui", "menu frame dropped: %v", err)
	}
}

// appendMenuHead hides the cursor, clears everything above the menu's
// bottom-right corner and homes the cursor.
func (c *CUI) appendMenuHead(buf []byte) []byte {
	buf = append(buf, escCursorHide...)
	buf = append(buf, "\x1b[3;"...)
	buf = strconv.AppendInt(buf, int64(c.p.LineWidth), 10)
	buf = append(buf, 'H')
	buf = append(buf, escClearUp...)
	return append(buf, escCursorHome...)
}

func (c *CUI) clearMenuArea() {
	buf, ok := c.menuPool.borrow()
	if !ok {
		return
	}
	buf = c.appendMenuHead(buf)
	if err := c.p.Terminal.WriteFrame(c.menuPool.frame(buf)); err != nil {
		logx.Debugf("cui", "menu clear dropped: %v", err)
	}
}
