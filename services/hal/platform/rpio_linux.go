//go:build linux && !rp2040

package platform

import (
	"sync"
	"time"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"devicecui-go/errcode"
	"devicecui-go/services/hal"
	"devicecui-go/x/logx"
)

// RPiPins maps BCM GPIO numbers on a Raspberry Pi through /dev/gpiomem.
type RPiPins struct {
	mu   sync.Mutex
	pins map[int]*rpiPin
}

// OpenRPi maps the GPIO block. It fails on hosts that are not a Pi.
func OpenRPi() (*RPiPins, error) {
	if err := rpio.Open(); err != nil {
		logx.Info("hal", "GPIO isn't present:", err)
		return nil, errcode.Wrap(errcode.NotManagingBtns, "rpio open", err)
	}
	return &RPiPins{pins: map[int]*rpiPin{}}, nil
}

func (r *RPiPins) Close() error { return rpio.Close() }

func (r *RPiPins) ByNumber(n int) (hal.GPIOPin, bool) {
	if n < 0 || n > 27 {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pins[n]
	if !ok {
		p = &rpiPin{p: rpio.Pin(n), n: n}
		r.pins[n] = p
	}
	return p, true
}

type rpiPin struct {
	p rpio.Pin
	n int

	mu   sync.Mutex
	stop chan struct{}
}

func (r *rpiPin) ConfigureInput(pull hal.Pull) error {
	r.p.Input()
	switch pull {
	case hal.PullUp:
		r.p.PullUp()
	case hal.PullDown:
		r.p.PullDown()
	default:
		r.p.PullOff()
	}
	return nil
}

func (r *rpiPin) ConfigureOutput(initial bool) error {
	r.p.Output()
	r.Set(initial)
	return nil
}

func (r *rpiPin) Set(level bool) {
	if level {
		r.p.High()
	} else {
		r.p.Low()
	}
}

func (r *rpiPin) Get() bool   { return r.p.Read() == rpio.High }
func (r *rpiPin) Toggle()     { r.p.Toggle() }
func (r *rpiPin) Number() int { return r.n }

// SetIRQ arms the SoC edge detector and samples its latch; user space has
// no interrupt line.
func (r *rpiPin) SetIRQ(edge hal.Edge, handler func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	if edge == hal.EdgeNone || handler == nil {
		return nil
	}
	r.p.Detect(toRPiEdge(edge))
	stop := make(chan struct{})
	r.stop = stop
	go func() {
		t := time.NewTicker(2 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if r.p.EdgeDetected() {
					handler()
				}
			}
		}
	}()
	return nil
}

func (r *rpiPin) ClearIRQ() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	return nil
}

func (r *rpiPin) stopLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	r.p.Detect(rpio.NoEdge)
}

func toRPiEdge(e hal.Edge) rpio.Edge {
	switch e {
	case hal.EdgeRising:
		return rpio.RiseEdge
	case hal.EdgeFalling:
		return rpio.FallEdge
	case hal.EdgeBoth:
		return rpio.AnyEdge
	default:
		return rpio.NoEdge
	}
}
