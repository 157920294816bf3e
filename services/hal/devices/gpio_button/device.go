// Package gpio_button turns debounced GPIO edges into button events with
// long-press detection.
package gpio_button

import (
	"context"
	"sync"
	"time"

	"devicecui-go/errcode"
	"devicecui-go/services/hal"
)

const (
	DefaultLongPress = 1000 * time.Millisecond
	DefaultDebounce  = 20 * time.Millisecond
)

type Params struct {
	ID        string
	Pin       hal.IRQPin
	Pull      hal.Pull
	ActiveLow bool
	Debounce  time.Duration // zero selects DefaultDebounce, negative disables
	LongPress time.Duration
}

// Device implements hal.ButtonDevice.
type Device struct {
	id        string
	pin       hal.IRQPin
	activeLow bool
	longPress time.Duration
	cancel    func()

	mu      sync.Mutex
	pressed bool
	long    bool
	gen     uint32
	timer   *time.Timer
	mask    hal.ButtonEvent
	fn      func(hal.ButtonEvent)
}

func (d *Device) ID() string { return d.id }

func (d *Device) Pressed() bool {
	level := d.pin.Get()
	if d.activeLow {
		level = !level
	}
	return level
}

func (d *Device) SetCallback(mask hal.ButtonEvent, fn func(hal.ButtonEvent)) {
	d.mu.Lock()
	d.mask, d.fn = mask, fn
	d.mu.Unlock()
}

func (d *Device) Close() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.fn = nil
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// handle advances the press state machine. Level is already logical.
func (d *Device) handle(pressed bool) {
	var evs []hal.ButtonEvent
	d.mu.Lock()
	switch {
	case pressed && !d.pressed:
		d.pressed, d.long = true, false
		d.gen++
		gen := d.gen
		d.timer = time.AfterFunc(d.longPress, func() { d.longFired(gen) })
		evs = append(evs, hal.ButtonPressed)
	case !pressed && d.pressed:
		d.pressed = false
		d.gen++
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		evs = append(evs, hal.ButtonReleased)
		if d.long {
			evs = append(evs, hal.ButtonLongClick)
		} else {
			evs = append(evs, hal.ButtonClick)
		}
	}
	mask, fn := d.mask, d.fn
	d.mu.Unlock()
	deliver(mask, fn, evs...)
}

func (d *Device) longFired(gen uint32) {
	d.mu.Lock()
	if gen != d.gen || !d.pressed {
		d.mu.Unlock()
		return
	}
	d.long = true
	d.timer = nil
	mask, fn := d.mask, d.fn
	d.mu.Unlock()
	deliver(mask, fn, hal.ButtonLongPress)
}

func deliver(mask hal.ButtonEvent, fn func(hal.ButtonEvent), evs ...hal.ButtonEvent) {
	if fn == nil {
		return
	}
	for _, ev := range evs {
		if mask.Has(ev) {
			fn(ev)
		}
	}
}

// Group feeds one EdgeWorker's events to the buttons registered on it.
type Group struct {
	w *hal.EdgeWorker

	mu   sync.RWMutex
	devs map[string]*Device
}

func NewGroup(w *hal.EdgeWorker) *Group {
	return &Group{w: w, devs: map[string]*Device{}}
}

// Add configures the pin as an input and arms both edges.
func (g *Group) Add(p Params) (*Device, error) {
	if p.Pin == nil || p.ID == "" {
		return nil, errcode.InvalidParam
	}
	if p.LongPress <= 0 {
		p.LongPress = DefaultLongPress
	}
	switch {
	case p.Debounce == 0:
		p.Debounce = DefaultDebounce
	case p.Debounce < 0:
		p.Debounce = 0
	}
	g.mu.Lock()
	if _, dup := g.devs[p.ID]; dup {
		g.mu.Unlock()
		return nil, errcode.PinInUse
	}
	g.mu.Unlock()

	if err := p.Pin.ConfigureInput(p.Pull); err != nil {
		return nil, err
	}
	d := &Device{id: p.ID, pin: p.Pin, activeLow: p.ActiveLow, longPress: p.LongPress}
	d.pressed = d.Pressed()

	cancel, err := g.w.RegisterInput(p.ID, p.Pin, hal.EdgeBoth, p.Debounce, p.ActiveLow)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	d.cancel = func() {
		cancel()
		g.mu.Lock()
		delete(g.devs, p.ID)
		g.mu.Unlock()
	}
	g.devs[p.ID] = d
	g.mu.Unlock()
	return d, nil
}

// Run dispatches edge events until ctx is done.
func (g *Group) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-g.w.Events():
			g.mu.RLock()
			d := g.devs[ev.DevID]
			g.mu.RUnlock()
			if d != nil {
				d.handle(ev.Level)
			}
		}
	}
}
