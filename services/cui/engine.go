package cui

import (
	"context"

	"devicecui-go/errcode"
	"devicecui-go/x/logx"
	"devicecui-go/x/mathx"
)

// ProcessMenuUpdate consumes the pending input window and applies it to the
// menu cursor. Clients call it from the Update hook of their menu. The
// cursor has a single owner, so this does not take the menu lock; actions
// and intercept handlers run on the caller's goroutine.
func (c *CUI) ProcessMenuUpdate() error {
	if !c.isInitialized() || c.p.Terminal == nil {
		return errcode.Failure
	}
	w, ok := c.p.Terminal.TakeInput()
	if !ok {
		return nil
	}
	in, ok := Decode(w)
	if !ok {
		logx.Debugf("cui", "dropped input % x", w[:])
		return nil
	}
	c.handleInput(in)
	return nil
}

// Feed applies one already-decoded input, as ProcessMenuUpdate would.
func (c *CUI) Feed(in Input) error {
	if !c.isInitialized() || c.p.Terminal == nil {
		return errcode.Failure
	}
	c.handleInput(in)
	return nil
}

func (c *CUI) handleInput(in Input) {
	n := &c.nav
	if n.cur == nil || n.cur.Len() == 0 {
		return
	}
	item := n.cur.Item(n.idx)
	it, _ := item.(*Intercept)
	if c.handleIntercept(it, in) {
		return
	}

	switch in {
	case InputLeft, InputUp:
		c.navigate(-1)
	case InputRight, InputDown:
		c.navigate(1)
	case InputExecute:
		item.execute(c, n.idx)
		c.drawMenu()
	case InputBack:
		n.back()
		c.drawMenu()
	case InputEsc:
		n.home()
		c.drawMenu()
	}
}

func (c *CUI) navigate(step int) {
	n := &c.nav
	if n.cur.Len() == 1 {
		return
	}
	n.idx = mathx.Wrap(n.idx, step, n.cur.Len())
	c.drawMenu()
}

// handleIntercept gives an interceptable item first refusal of the input.
// It reports whether normal navigation must be skipped.
func (c *CUI) handleIntercept(it *Intercept, in Input) bool {
	if it == nil {
		return false
	}
	// Handlers edit the view left by the last draw.
	lines := &c.lines
	cur := Cursor{-1, -1}
	started := false

	if it.active {
		switch in {
		case InputExecute, InputEsc:
			it.active = false
			sig := SignalStop
			if in == InputEsc {
				sig = SignalCancel
			}
			it.signal(sig, lines, &cur)
			c.clearCursor()
			c.drawMenu()
			return true
		}
	} else if in == InputExecute {
		it.active = true
		started = true
	}
	if !it.active {
		return false
	}

	sig := in
	if started {
		sig = SignalStart
	}
	it.signal(sig, lines, &cur)
	c.drawLines(*lines)
	c.setCursor(cur)
	return true
}

// Run delivers input-ready events from the bus to the Update hook nearest
// the cursor, until ctx is done.
func (c *CUI) Run(ctx context.Context) error {
	if c.p.Terminal == nil {
		return errcode.NotManagingUart
	}
	if c.p.Conn == nil {
		return errcode.Wrap(errcode.InvalidParam, "cui run", nil)
	}
	sub := c.p.Conn.Subscribe(c.p.InputTopic)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			c.callUpdateFn()
		}
	}
}

// callUpdateFn walks from the current menu towards the root and calls the
// first Update hook found. With no menu to take it, the input is discarded
// so the holding buffer can refill.
func (c *CUI) callUpdateFn() {
	c.menuMu.Lock()
	var fn func()
	for m := c.nav.cur; m != nil; m = m.parent {
		if m.Update != nil {
			fn = m.Update
			break
		}
	}
	c.menuMu.Unlock()

	if fn == nil {
		_, _ = c.p.Terminal.TakeInput()
		return
	}
	fn()
}
