//go:build !rp2040

package platform

import (
	"sync"

	"devicecui-go/services/hal"
)

// SimPin is an in-memory GPIO with edge interrupts. The host demo backs
// LEDs and buttons with it when no board is attached; Set drives the IRQ
// exactly like a wire would.
type SimPin struct {
	mu      sync.Mutex
	number  int
	level   bool
	irqEdge hal.Edge
	irqFunc func()
}

func (p *SimPin) ConfigureInput(pull hal.Pull) error {
	if pull == hal.PullUp {
		p.Set(true)
	}
	return nil
}

func (p *SimPin) ConfigureOutput(initial bool) error {
	p.Set(initial)
	return nil
}

func (p *SimPin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *SimPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *SimPin) Toggle()     { p.Set(!p.Get()) }
func (p *SimPin) Number() int { return p.number }

func (p *SimPin) SetIRQ(edge hal.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge, p.irqFunc = edge, handler
	p.mu.Unlock()
	return nil
}

func (p *SimPin) ClearIRQ() error { return p.SetIRQ(hal.EdgeNone, nil) }

func edgeFrom(old, new bool) hal.Edge {
	switch {
	case !old && new:
		return hal.EdgeRising
	case old && !new:
		return hal.EdgeFalling
	default:
		return hal.EdgeNone
	}
}

func irqWanted(cfg, seen hal.Edge) bool {
	if seen == hal.EdgeNone {
		return false
	}
	return cfg == hal.EdgeBoth || cfg == seen
}

// SimPins hands out stable *SimPin instances per number.
type SimPins struct {
	mu   sync.Mutex
	pins map[int]*SimPin
}

func NewSimPins() *SimPins { return &SimPins{pins: map[int]*SimPin{}} }

func (f *SimPins) ByNumber(n int) (hal.GPIOPin, bool) {
	return f.Pin(n), true
}

// Pin returns the concrete pin so callers can drive it.
func (f *SimPins) Pin(n int) *SimPin {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = &SimPin{number: n}
		f.pins[n] = p
	}
	return p
}
