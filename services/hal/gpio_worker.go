// services/hal/gpio_worker.go
package hal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// EdgeEvent is one debounced transition of a watched input.
type EdgeEvent struct {
	DevID string
	Level bool // after inversion
	Edge  Edge
	TS    time.Time
}

// EdgeWorker turns raw pin interrupts into debounced edge events. The ISR
// side only reads the pin and does a non-blocking send.
type EdgeWorker struct {
	isrQ chan isrEvent
	outQ chan EdgeEvent

	mu     sync.RWMutex
	inputs map[string]*watch

	drops atomic.Uint32
}

type isrEvent struct {
	devID string
	level bool
	ts    time.Time
}

type watch struct {
	edge      Edge
	debounce  time.Duration
	invert    bool
	lastLevel bool
	lastEvent time.Time
	clear     func()
}

func NewEdgeWorker(isrBuf, outBuf int) *EdgeWorker {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	if outBuf <= 0 {
		outBuf = 64
	}
	return &EdgeWorker{
		isrQ:   make(chan isrEvent, isrBuf),
		outQ:   make(chan EdgeEvent, outBuf),
		inputs: map[string]*watch{},
	}
}

func (w *EdgeWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.isrQ:
				w.handleISR(ev)
			}
		}
	}()
}

func (w *EdgeWorker) Events() <-chan EdgeEvent { return w.outQ }

// RegisterInput arms the pin IRQ and returns a cancel func.
func (w *EdgeWorker) RegisterInput(devID string, pin IRQPin, edge Edge, debounce time.Duration, invert bool) (func(), error) {
	if edge == EdgeNone {
		return func() {}, nil
	}
	init := pin.Get()
	if invert {
		init = !init
	}
	wh := &watch{
		edge:      edge,
		debounce:  debounce,
		invert:    invert,
		lastLevel: init,
	}

	handler := func() {
		select {
		case w.isrQ <- isrEvent{devID: devID, level: pin.Get(), ts: time.Now()}:
		default:
			w.drops.Add(1)
		}
	}
	if err := pin.SetIRQ(edge, handler); err != nil {
		return nil, err
	}
	wh.clear = func() { _ = pin.ClearIRQ() }

	w.mu.Lock()
	if old, ok := w.inputs[devID]; ok && old.clear != nil {
		old.clear()
	}
	w.inputs[devID] = wh
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		if cur, ok := w.inputs[devID]; ok && cur == wh {
			cur.clear()
			delete(w.inputs, devID)
		}
		w.mu.Unlock()
	}, nil
}

func (w *EdgeWorker) handleISR(ev isrEvent) {
	w.mu.RLock()
	wh := w.inputs[ev.devID]
	w.mu.RUnlock()
	if wh == nil {
		return
	}
	raw := ev.level
	if wh.invert {
		raw = !raw
	}

	if !wh.lastEvent.IsZero() && ev.ts.Sub(wh.lastEvent) < wh.debounce {
		return
	}

	var e Edge
	switch {
	case !wh.lastLevel && raw:
		e = EdgeRising
	case wh.lastLevel && !raw:
		e = EdgeFalling
	default:
		return
	}

	if wh.edge == EdgeBoth || wh.edge == e {
		select {
		case w.outQ <- EdgeEvent{DevID: ev.devID, Level: raw, Edge: e, TS: ev.ts}:
		default:
			// consumer is slow
		}
	}

	wh.lastLevel = raw
	wh.lastEvent = ev.ts
}

func (w *EdgeWorker) ISRDrops() uint32 { return w.drops.Load() }
