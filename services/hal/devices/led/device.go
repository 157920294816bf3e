// Package led drives an indicator LED on a GPIO output.
package led

import (
	"sync"
	"time"

	"devicecui-go/services/hal"
)

type Params struct {
	Pin       hal.GPIOPin
	ActiveLow bool
	Initial   bool
}

// Device implements hal.LEDDevice. Any non-zero brightness is fully on.
type Device struct {
	pin       hal.GPIOPin
	activeLow bool

	mu    sync.Mutex
	state hal.LEDState
	stop  chan struct{}
	done  chan struct{}
}

func New(p Params) (*Device, error) {
	level := p.Initial
	if p.ActiveLow {
		level = !level
	}
	if err := p.Pin.ConfigureOutput(level); err != nil {
		return nil, err
	}
	d := &Device{pin: p.Pin, activeLow: p.ActiveLow}
	if p.Initial {
		d.state = hal.LEDOn
	}
	return d, nil
}

func (d *Device) On(brightness uint8) {
	if brightness == 0 {
		d.Off()
		return
	}
	d.StopBlink()
	d.mu.Lock()
	d.setLogical(true)
	d.state = hal.LEDOn
	d.mu.Unlock()
}

func (d *Device) Off() {
	d.StopBlink()
	d.mu.Lock()
	d.setLogical(false)
	d.state = hal.LEDOff
	d.mu.Unlock()
}

// Toggle flips the LED. A running blink is toggled in place.
func (d *Device) Toggle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	on := !d.getLogical()
	d.setLogical(on)
	if d.state == hal.LEDBlinking {
		return
	}
	if on {
		d.state = hal.LEDOn
	} else {
		d.state = hal.LEDOff
	}
}

// Blink starts on and toggles every half period. n blinks take n periods;
// hal.BlinkForever keeps going until StopBlink. The LED is left off.
func (d *Device) Blink(period time.Duration, n uint16) {
	d.StopBlink()
	if n == 0 || period <= 0 {
		d.Off()
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})

	d.mu.Lock()
	d.stop, d.done = stop, done
	d.state = hal.LEDBlinking
	d.setLogical(true)
	d.mu.Unlock()

	go d.blink(period/2, n, stop, done)
}

func (d *Device) blink(half time.Duration, n uint16, stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(half)
	defer t.Stop()
	edges := 2*int(n) - 1
	for i := 0; n == hal.BlinkForever || i < edges; i++ {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		d.mu.Lock()
		d.setLogical(!d.getLogical())
		d.mu.Unlock()
	}

	d.mu.Lock()
	if d.stop == stop {
		d.stop, d.done = nil, nil
		d.setLogical(false)
		d.state = hal.LEDOff
	}
	d.mu.Unlock()
}

// StopBlink ends a blink and leaves the LED off. It is a no-op otherwise.
func (d *Device) StopBlink() {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done

	d.mu.Lock()
	d.setLogical(false)
	d.state = hal.LEDOff
	d.mu.Unlock()
}

func (d *Device) State() hal.LEDState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) Close() error {
	d.Off()
	return nil
}

func (d *Device) setLogical(on bool) {
	level := on
	if d.activeLow {
		level = !level
	}
	d.pin.Set(level)
}

func (d *Device) getLogical() bool {
	level := d.pin.Get()
	if d.activeLow {
		level = !level
	}
	return level
}
