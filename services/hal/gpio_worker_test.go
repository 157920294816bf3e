package hal

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakePin struct {
	mu    sync.Mutex
	level bool
	n     int
}

func (p *fakePin) ConfigureInput(Pull) error       { return nil }
func (p *fakePin) ConfigureOutput(init bool) error { p.Set(init); return nil }
func (p *fakePin) Set(b bool)                      { p.mu.Lock(); p.level = b; p.mu.Unlock() }
func (p *fakePin) Get() bool                       { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *fakePin) Toggle()                         { p.mu.Lock(); p.level = !p.level; p.mu.Unlock() }
func (p *fakePin) Number() int                     { return p.n }

// fake IRQ-capable pin
type fakeIRQPin struct {
	fakePin
	h func()
}

func (p *fakeIRQPin) SetIRQ(edge Edge, handler func()) error { p.h = handler; return nil }
func (p *fakeIRQPin) ClearIRQ() error                        { p.h = nil; return nil }

// simulate a hardware edge by setting level then calling ISR handler
func (p *fakeIRQPin) trigger(level bool) {
	p.Set(level)
	if p.h != nil {
		p.h()
	}
}

var _ IRQPin = (*fakeIRQPin)(nil)
var _ IRQPin = (*PolledPin)(nil)

func recvEvent(t *testing.T, ch <-chan EdgeEvent, d time.Duration) (EdgeEvent, bool) {
	t.Helper()
	select {
	case ev := <-ch:
		return ev, true
	case <-time.After(d):
		return EdgeEvent{}, false
	}
}

func TestEdgeWorker_RisingEdge_EventDelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakeIRQPin{}
	w := NewEdgeWorker(16, 16)
	w.Start(ctx)

	cancelReg, err := w.RegisterInput("btn0", p, EdgeRising, 0, false)
	if err != nil {
		t.Fatalf("RegisterInput error: %v", err)
	}
	defer cancelReg()

	p.trigger(true)

	ev, ok := recvEvent(t, w.Events(), 50*time.Millisecond)
	if !ok {
		t.Fatal("expected event, got timeout")
	}
	if ev.DevID != "btn0" || ev.Edge != EdgeRising || !ev.Level {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// Falling transition should be ignored for EdgeRising
	p.trigger(false)
	if _, ok := recvEvent(t, w.Events(), 10*time.Millisecond); ok {
		t.Fatal("did not expect an event for falling edge")
	}
}

func TestEdgeWorker_InvertAndDebounce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakeIRQPin{}
	p.level = true // idle high, active low
	w := NewEdgeWorker(16, 16)
	w.Start(ctx)

	stop, err := w.RegisterInput("btn1", p, EdgeBoth, 10*time.Millisecond, true)
	if err != nil {
		t.Fatalf("RegisterInput error: %v", err)
	}
	defer stop()

	p.trigger(false) // logical press
	ev, ok := recvEvent(t, w.Events(), 50*time.Millisecond)
	if !ok || ev.Edge != EdgeRising || !ev.Level {
		t.Fatalf("expected logical rising, got %+v ok=%v", ev, ok)
	}

	// bounce inside the window is dropped
	p.trigger(true)
	if _, ok := recvEvent(t, w.Events(), 5*time.Millisecond); ok {
		t.Fatal("unexpected event within debounce window")
	}

	time.Sleep(12 * time.Millisecond)
	p.trigger(true)
	ev, ok = recvEvent(t, w.Events(), 20*time.Millisecond)
	if !ok || ev.Edge != EdgeFalling || ev.Level {
		t.Fatalf("expected logical falling after debounce, got %+v ok=%v", ev, ok)
	}
}

func TestEdgeWorker_CancelStopsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakeIRQPin{}
	w := NewEdgeWorker(16, 16)
	w.Start(ctx)

	stop, err := w.RegisterInput("x", p, EdgeBoth, 0, false)
	if err != nil {
		t.Fatalf("RegisterInput error: %v", err)
	}
	stop()

	p.trigger(true)
	if _, ok := recvEvent(t, w.Events(), 10*time.Millisecond); ok {
		t.Fatal("unexpected event after cancel")
	}
}

func TestEdgeWorker_ISRDropCounter(t *testing.T) {
	// Not started, so isrQ is never drained.
	p := &fakeIRQPin{}
	w := NewEdgeWorker(1, 1)

	if _, err := w.RegisterInput("y", p, EdgeBoth, 0, false); err != nil {
		t.Fatalf("RegisterInput error: %v", err)
	}

	p.trigger(true)
	p.trigger(false)

	if got := w.ISRDrops(); got == 0 {
		t.Fatalf("expected at least 1 ISR drop, got %d", got)
	}
}

func TestPolledPin_ReportsChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	raw := &fakePin{n: 3}
	pp := NewPolledPin(raw, time.Millisecond)
	w := NewEdgeWorker(16, 16)
	w.Start(ctx)

	stop, err := w.RegisterInput("exp3", pp, EdgeBoth, 0, false)
	if err != nil {
		t.Fatalf("RegisterInput error: %v", err)
	}
	defer stop()

	raw.Set(true)
	ev, ok := recvEvent(t, w.Events(), 200*time.Millisecond)
	if !ok || ev.Edge != EdgeRising {
		t.Fatalf("expected rising from polled pin, got %+v ok=%v", ev, ok)
	}
	raw.Set(false)
	ev, ok = recvEvent(t, w.Events(), 200*time.Millisecond)
	if !ok || ev.Edge != EdgeFalling {
		t.Fatalf("expected falling from polled pin, got %+v ok=%v", ev, ok)
	}
}
