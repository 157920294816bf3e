package cui

import (
	"fmt"
	"strconv"

	"devicecui-go/errcode"
	"devicecui-go/x/mathx"
	"devicecui-go/x/strx"
)

// LineID names one of a client's status lines.
type LineID int

const labelSep = ": "

type statusLine struct {
	acquired bool
	offset   int // rows below InitialStatusOffset, fixed once assigned
	label    string
}

type cursorOverlay struct {
	active   bool
	row, col int
}

// StatusLineRequest acquires the first free status line of id and prints
// "--" on it.
func (c *CUI) StatusLineRequest(id ClientID, label string) (LineID, error) {
	if err := c.checkUART(id); err != nil {
		return -1, err
	}
	cl := c.lookup(id)
	ci := c.clientIndex(id)
	if cl == nil || ci < 0 {
		return -1, errcode.InvalidClientHandle
	}

	c.statusMu.Lock()
	free := -1
	for i := range cl.lines {
		if !cl.lines[i].acquired {
			free = i
			break
		}
	}
	if free < 0 {
		c.statusMu.Unlock()
		return -1, errcode.NoLinesReleased
	}
	off := c.baseOffset(ci) + free
	cl.lines[free] = statusLine{
		acquired: true,
		offset:   off,
		label:    strx.Fit(label, c.p.MaxLabelLen) + labelSep,
	}
	c.statusMu.Unlock()

	line := LineID(free)
	if err := c.StatusLinePrintf(id, line, "--"); err != nil {
		return line, err
	}
	return line, nil
}

// baseOffset sums the quotas of every client opened before index ci, plus
// one blank separator row per client.
func (c *CUI) baseOffset(ci int) int {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()
	off := 0
	for i := 0; i < ci && i < len(c.clients); i++ {
		off += c.clients[i].quota + 1
	}
	return off
}

// statusLineFor returns the acquired line, checking ownership.
// Caller holds statusMu and has passed checkUART.
func (c *CUI) statusLineFor(id ClientID, line LineID) (*statusLine, error) {
	cl := c.lookup(id)
	if cl == nil {
		return nil, errcode.InvalidClientHandle
	}
	if line < 0 || int(line) >= len(cl.lines) || !cl.lines[line].acquired {
		return nil, errcode.ResourceNotAcquired
	}
	return &cl.lines[line], nil
}

// StatusLinePrintf formats a value onto an acquired line. Prints are
// serialised against each other and against Close.
func (c *CUI) StatusLinePrintf(id ClientID, line LineID, format string, args ...any) error {
	if err := c.checkUART(id); err != nil {
		return err
	}
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	sl, err := c.statusLineFor(id, line)
	if err != nil {
		return err
	}

	value := strx.FitANSI(fmt.Sprintf(format, args...), c.p.MaxValueLen)
	buf, ok := c.statusPool.borrow()
	if !ok {
		return errcode.PrevWriteUnfinished
	}
	buf = appendStatusHead(buf, InitialStatusOffset+sl.offset)
	buf = append(buf, sl.label...)
	buf = append(buf, value...)
	buf = append(buf, frameEnd)
	if err := c.p.Terminal.WriteFrame(c.statusPool.frame(buf)); err != nil {
		return err
	}
	c.restoreCursor()
	return nil
}

// StatusLineRelease clears the row and frees the line. The row offset is
// kept so the next acquisition lands in the same place.
func (c *CUI) StatusLineRelease(id ClientID, line LineID) error {
	if err := c.checkUART(id); err != nil {
		return err
	}
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	sl, err := c.statusLineFor(id, line)
	if err != nil {
		return err
	}
	sl.acquired = false
	sl.label = ""

	buf, ok := c.statusPool.borrow()
	if !ok {
		return errcode.PrevWriteUnfinished
	}
	buf = append(buf, escCursorHide+escCursorHome...)
	buf = appendLine(buf, InitialStatusOffset+sl.offset)
	buf = append(buf, escClearLine...)
	return c.p.Terminal.WriteFrame(c.statusPool.frame(buf))
}

// StatusLineRow returns the terminal row an acquired line is drawn on.
func (c *CUI) StatusLineRow(id ClientID, line LineID) (int, error) {
	if err := c.checkUART(id); err != nil {
		return 0, err
	}
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	sl, err := c.statusLineFor(id, line)
	if err != nil {
		return 0, err
	}
	return InitialStatusOffset + sl.offset, nil
}

func appendStatusHead(buf []byte, row int) []byte {
	buf = append(buf, escCursorHide+escCursorHome...)
	buf = appendLine(buf, row)
	buf = append(buf, escClearLine...)
	return append(buf, statusStart)
}

// appendLine emits ESC[<row>;0H.
func appendLine(buf []byte, row int) []byte {
	buf = append(buf, "\x1b["...)
	buf = strconv.AppendInt(buf, int64(row), 10)
	return append(buf, ";0H"...)
}

func appendRowCol(buf []byte, row, col int) []byte {
	buf = append(buf, "\x1b["...)
	buf = strconv.AppendInt(buf, int64(row), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(col), 10)
	return append(buf, 'H')
}

// setCursor records the intercept cursor and shows it. Caller must not hold
// statusMu.
func (c *CUI) setCursor(cur Cursor) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if !cur.valid() {
		c.overlay = cursorOverlay{}
		return
	}
	// Keep the cursor inside the three menu rows.
	c.overlay = cursorOverlay{
		active: true,
		row:    mathx.Clamp(cur.Row, 1, 3),
		col:    mathx.Clamp(cur.Col, 1, c.p.LineWidth+1),
	}
	c.restoreCursor()
}

func (c *CUI) clearCursor() {
	c.statusMu.Lock()
	c.overlay = cursorOverlay{}
	c.statusMu.Unlock()
}

// restoreCursor puts the cursor back where an intercept asked for it.
// Caller holds statusMu.
func (c *CUI) restoreCursor() {
	if !c.overlay.active {
		return
	}
	buf, ok := c.statusPool.borrow()
	if !ok {
		return
	}
	buf = append(buf, escCursorHome...)
	buf = appendRowCol(buf, c.overlay.row, c.overlay.col)
	buf = append(buf, escCursorShow...)
	_ = c.p.Terminal.WriteFrame(c.statusPool.frame(buf))
}
