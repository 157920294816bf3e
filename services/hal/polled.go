package hal

import (
	"sync"
	"time"
)

// PolledPin gives a GPIOPin without interrupt support (expander pins, some
// host pins) an IRQPin face by sampling it on a ticker.
type PolledPin struct {
	GPIOPin
	period time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewPolledPin(p GPIOPin, period time.Duration) *PolledPin {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return &PolledPin{GPIOPin: p, period: period}
}

func (p *PolledPin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	if edge == EdgeNone || handler == nil {
		return nil
	}
	stop := make(chan struct{})
	p.stop = stop
	go p.poll(edge, handler, stop)
	return nil
}

func (p *PolledPin) ClearIRQ() error { return p.SetIRQ(EdgeNone, nil) }

func (p *PolledPin) poll(edge Edge, handler func(), stop <-chan struct{}) {
	t := time.NewTicker(p.period)
	defer t.Stop()
	last := p.Get()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		cur := p.Get()
		if cur == last {
			continue
		}
		last = cur
		if edge == EdgeBoth || (edge == EdgeRising && cur) || (edge == EdgeFalling && !cur) {
			handler()
		}
	}
}
