package platform

import (
	"devicecui-go/drivers/pca9555"
	"devicecui-go/services/hal"
	"devicecui-go/x/logx"
)

// ExpanderPins exposes the pins of a PCA9555 as hal.GPIOPin. Numbers are
// offset by Base so they can share a PinFactory with MCU pins.
type ExpanderPins struct {
	Dev  *pca9555.Device
	Base int
}

func (e ExpanderPins) ByNumber(n int) (hal.GPIOPin, bool) {
	i := n - e.Base
	if e.Dev == nil || i < 0 || i >= pca9555.NumPins {
		return nil, false
	}
	return &expanderPin{d: e.Dev, i: i, n: n}, true
}

type expanderPin struct {
	d *pca9555.Device
	i int
	n int
}

// ConfigureInput ignores pull: the PCA9555 has fixed 100k pull-ups.
func (p *expanderPin) ConfigureInput(hal.Pull) error { return p.d.SetInput(p.i, true) }

func (p *expanderPin) ConfigureOutput(initial bool) error {
	if err := p.d.Write(p.i, initial); err != nil {
		return err
	}
	return p.d.SetInput(p.i, false)
}

func (p *expanderPin) Set(level bool) {
	if err := p.d.Write(p.i, level); err != nil {
		logx.Debugf("hal", "expander pin %d write: %v", p.n, err)
	}
}

func (p *expanderPin) Get() bool {
	v, err := p.d.Read(p.i)
	if err != nil {
		logx.Debugf("hal", "expander pin %d read: %v", p.n, err)
		return p.d.Latched(p.i)
	}
	return v
}

func (p *expanderPin) Toggle()     { p.Set(!p.d.Latched(p.i)) }
func (p *expanderPin) Number() int { return p.n }

// Pins chains factories; the first one that knows a number wins.
type Pins []hal.PinFactory

func (ps Pins) ByNumber(n int) (hal.GPIOPin, bool) {
	for _, f := range ps {
		if f == nil {
			continue
		}
		if p, ok := f.ByNumber(n); ok {
			return p, true
		}
	}
	return nil, false
}

// IRQ returns p as an IRQPin, polling it when it has no interrupt line.
func IRQ(p hal.GPIOPin) hal.IRQPin {
	if ip, ok := p.(hal.IRQPin); ok {
		return ip
	}
	return hal.NewPolledPin(p, 0)
}
