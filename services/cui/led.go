package cui

import (
	"devicecui-go/errcode"
	"devicecui-go/services/hal"
)

// BlinkContinuous keeps an LED blinking until it is switched on, off or
// toggled.
const BlinkContinuous = hal.BlinkForever

type ledRes struct {
	owner ClientID
	dev   hal.LEDDevice
}

// ledOp validates id against index and runs fn under the LED lock.
func (c *CUI) ledOp(id ClientID, index int, fn func(d hal.LEDDevice)) error {
	if err := c.checkLEDs(id); err != nil {
		return err
	}
	if index < 0 || index >= len(c.leds) {
		return errcode.InvalidParam
	}
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	if c.leds[index].owner != id {
		return errcode.InvalidClientHandle
	}
	fn(c.leds[index].dev)
	return nil
}

func (c *CUI) LEDRequest(id ClientID, index int) error {
	if err := c.checkLEDs(id); err != nil {
		return err
	}
	if index < 0 || index >= len(c.leds) {
		return errcode.InvalidParam
	}
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	if c.leds[index].owner != 0 {
		return errcode.Busy
	}
	c.leds[index].owner = id
	return nil
}

// LEDRelease frees index and switches the LED off.
func (c *CUI) LEDRelease(id ClientID, index int) error {
	return c.ledOp(id, index, func(d hal.LEDDevice) {
		d.StopBlink()
		d.Off()
		c.leds[index].owner = 0
	})
}

func (c *CUI) LEDOn(id ClientID, index int, brightness uint8) error {
	return c.ledOp(id, index, func(d hal.LEDDevice) {
		stopBlink(d)
		d.On(brightness)
	})
}

func (c *CUI) LEDOff(id ClientID, index int) error {
	return c.ledOp(id, index, func(d hal.LEDDevice) {
		stopBlink(d)
		d.Off()
	})
}

func (c *CUI) LEDToggle(id ClientID, index int) error {
	return c.ledOp(id, index, func(d hal.LEDDevice) {
		stopBlink(d)
		d.Toggle()
	})
}

// LEDBlink blinks numBlinks times with the configured period, or forever
// with BlinkContinuous.
func (c *CUI) LEDBlink(id ClientID, index int, numBlinks uint16) error {
	return c.ledOp(id, index, func(d hal.LEDDevice) {
		d.Blink(c.p.BlinkPeriod, numBlinks)
	})
}

// LEDOwner reports the current owner of index (0 when free).
func (c *CUI) LEDOwner(index int) ClientID {
	if index < 0 || index >= len(c.leds) {
		return 0
	}
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	return c.leds[index].owner
}

// LEDState reports what the LED at index is doing, whoever owns it.
func (c *CUI) LEDState(index int) hal.LEDState {
	if index < 0 || index >= len(c.leds) {
		return hal.LEDOff
	}
	c.ledMu.Lock()
	defer c.ledMu.Unlock()
	return c.leds[index].dev.State()
}

func stopBlink(d hal.LEDDevice) {
	if d.State() == hal.LEDBlinking {
		d.StopBlink()
	}
}
