package cui

import (
	"strconv"

	"devicecui-go/bus"
	"devicecui-go/errcode"
	"devicecui-go/services/hal"
)

// ButtonCallback receives events for an owned button.
type ButtonCallback func(index int, ev hal.ButtonEvent)

// ButtonMessage is published on {"cui","button",<index>} for every event.
type ButtonMessage struct {
	Index int
	Event hal.ButtonEvent
	Owner ClientID
}

type buttonRes struct {
	owner ClientID
	dev   hal.ButtonDevice
	cb    ButtonCallback
}

func (c *CUI) buttonIndexOK(index int) bool { return index >= 0 && index < len(c.buttons) }

// ButtonRequest acquires button index for id. cb may be nil.
func (c *CUI) ButtonRequest(id ClientID, index int, cb ButtonCallback) error {
	if err := c.checkButtons(id); err != nil {
		return err
	}
	if !c.buttonIndexOK(index) {
		return errcode.InvalidParam
	}
	c.btnMu.Lock()
	defer c.btnMu.Unlock()
	if c.buttons[index].owner != 0 {
		return errcode.Busy
	}
	c.buttons[index].owner = id
	c.buttons[index].cb = cb
	return nil
}

func (c *CUI) ButtonSetCallback(id ClientID, index int, cb ButtonCallback) error {
	if err := c.checkButtons(id); err != nil {
		return err
	}
	if !c.buttonIndexOK(index) {
		return errcode.InvalidParam
	}
	c.btnMu.Lock()
	defer c.btnMu.Unlock()
	if c.buttons[index].owner != id {
		return errcode.InvalidClientHandle
	}
	c.buttons[index].cb = cb
	return nil
}

// ButtonValue reads the current pressed state. Any client may read any
// button.
func (c *CUI) ButtonValue(index int) (bool, error) {
	if len(c.p.Buttons) == 0 {
		return false, errcode.NotManagingBtns
	}
	if !c.isInitialized() {
		return false, errcode.ModuleUninitialized
	}
	if !c.buttonIndexOK(index) {
		return false, errcode.InvalidParam
	}
	return c.buttons[index].dev.Pressed(), nil
}

func (c *CUI) ButtonRelease(id ClientID, index int) error {
	if err := c.checkButtons(id); err != nil {
		return err
	}
	if !c.buttonIndexOK(index) {
		return errcode.InvalidParam
	}
	c.btnMu.Lock()
	defer c.btnMu.Unlock()
	if c.buttons[index].owner != id {
		return errcode.InvalidClientHandle
	}
	c.buttons[index].owner = 0
	c.buttons[index].cb = nil
	return nil
}

// ButtonOwner reports the current owner of index (0 when free).
func (c *CUI) ButtonOwner(index int) ClientID {
	if !c.buttonIndexOK(index) {
		return 0
	}
	c.btnMu.Lock()
	defer c.btnMu.Unlock()
	return c.buttons[index].owner
}

// dispatchButton runs on the device's event goroutine.
func (c *CUI) dispatchButton(index int, ev hal.ButtonEvent) {
	c.btnMu.Lock()
	owner, cb := c.buttons[index].owner, c.buttons[index].cb
	c.btnMu.Unlock()

	if c.p.Conn != nil {
		c.p.Conn.Publish(bus.NewMessage(
			bus.T("cui", "button", strconv.Itoa(index)),
			ButtonMessage{Index: index, Event: ev, Owner: owner},
			false,
		))
	}
	if cb != nil {
		cb(index, ev)
	}
}
