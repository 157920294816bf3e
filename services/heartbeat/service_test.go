package heartbeat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"devicecui-go/bus"
	"devicecui-go/services/config"
	"devicecui-go/services/cui"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/uartio"
)

type fakeTerm struct {
	mu     sync.Mutex
	frames []string
}

func (f *fakeTerm) WriteFrame(fr uartio.Frame) error {
	if fr.Release != nil {
		defer fr.Release()
	}
	f.mu.Lock()
	f.frames = append(f.frames, string(fr.Data))
	f.mu.Unlock()
	return nil
}

func (f *fakeTerm) TakeInput() (cui.Window, bool) { return cui.Window{}, false }

func (f *fakeTerm) contains(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fr := range f.frames {
		if strings.Contains(fr, s) {
			return true
		}
	}
	return false
}

type fakeLED struct {
	mu       sync.Mutex
	on       bool
	blinking bool
	toggles  int
	blinks   uint16
	stops    int
}

func (l *fakeLED) On(uint8)     { l.mu.Lock(); l.on = true; l.mu.Unlock() }
func (l *fakeLED) Off()         { l.mu.Lock(); l.on = false; l.mu.Unlock() }
func (l *fakeLED) Toggle()      { l.mu.Lock(); l.on = !l.on; l.toggles++; l.mu.Unlock() }
func (l *fakeLED) StopBlink()   { l.mu.Lock(); l.blinking = false; l.stops++; l.mu.Unlock() }
func (l *fakeLED) Close() error { return nil }

func (l *fakeLED) Blink(_ time.Duration, n uint16) {
	l.mu.Lock()
	l.blinks, l.blinking = n, true
	l.mu.Unlock()
}

func (l *fakeLED) State() hal.LEDState {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.blinking:
		return hal.LEDBlinking
	case l.on:
		return hal.LEDOn
	}
	return hal.LEDOff
}

func (l *fakeLED) count() (int, uint16) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.toggles, l.blinks
}

func setup(t *testing.T, iv time.Duration) (*Service, *cui.CUI, *fakeTerm, *fakeLED, *bus.Connection) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	term, led := &fakeTerm{}, &fakeLED{}
	conn := bus.NewBus(8).NewConnection("test")
	c, err := cui.New(cui.Params{Terminal: term, LEDs: []hal.LEDDevice{led}, Conn: conn})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	s := New(Params{CUI: c, Interval: iv, LED: 0, Button: -1})
	if err := s.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}
	return s, c, term, led, conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for %s", what)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestBeats(t *testing.T) {
	s, c, term, led, _ := setup(t, 5*time.Millisecond)
	if c.LEDOwner(0) == 0 {
		t.Fatal("LED not acquired")
	}
	waitFor(t, "3 beats", func() bool { return s.Beats() >= 3 })
	if n, _ := led.count(); n == 0 {
		t.Errorf("LED never toggled")
	}
	waitFor(t, "status frame", func() bool { return term.contains("\x02Heartbeat: 3 beats") })
}

func TestBeatLeavesBlinkRunning(t *testing.T) {
	s, _, _, led, _ := setup(t, time.Hour)
	s.blink(3)
	s.beat()
	s.beat()

	led.mu.Lock()
	defer led.mu.Unlock()
	if !led.blinking || led.stops != 0 {
		t.Errorf("blink stopped by beat: blinking=%v stops=%d", led.blinking, led.stops)
	}
	if led.toggles != 0 {
		t.Errorf("toggles = %d during blink", led.toggles)
	}

	led.blinking = false
	led.mu.Unlock()
	s.beat()
	led.mu.Lock()
	if led.toggles != 1 {
		t.Errorf("toggles = %d after blink", led.toggles)
	}
}

func TestConfigInterval(t *testing.T) {
	s, _, _, _, conn := setup(t, time.Hour)
	conn.Publish(bus.NewMessage(topicConfigHeartbeat, map[string]any{"interval": 0.01}, false))
	waitFor(t, "json interval", func() bool { return s.Interval() == 10*time.Millisecond })
	waitFor(t, "beat after reset", func() bool { return s.Beats() > 0 })

	conn.Publish(bus.NewMessage(topicConfigHeartbeat, config.Heartbeat{Interval: 2 * time.Hour}, false))
	waitFor(t, "typed interval", func() bool { return s.Interval() == 2*time.Hour })
}

func TestMenuPause(t *testing.T) {
	s, c, _, _, _ := setup(t, time.Hour)
	if c.Root() != s.Menu() {
		t.Fatal("menu not registered as root")
	}
	for i := 0; i < 3; i++ {
		_ = c.Feed(cui.InputLeft)
	}
	if _, idx := c.Current(); idx != 0 {
		t.Fatalf("cursor at %d", idx)
	}
	_ = c.Feed(cui.InputExecute)
	if !s.Paused() {
		t.Errorf("not paused")
	}
	_ = c.Feed(cui.InputExecute)
	if s.Paused() {
		t.Errorf("still paused")
	}
}

func TestMenuBlink(t *testing.T) {
	_, c, _, led, _ := setup(t, time.Hour)
	_ = c.Feed(cui.InputLeft)
	_ = c.Feed(cui.InputLeft)
	_ = c.Feed(cui.InputExecute)
	if _, n := led.count(); n != 3 {
		t.Errorf("blinks = %d", n)
	}
}

func TestIntervalIntercept(t *testing.T) {
	s, c, term, _, _ := setup(t, time.Hour)
	_ = c.Feed(cui.InputLeft)
	_ = c.Feed(cui.InputExecute)
	for _, k := range "1x5" {
		_ = c.Feed(cui.Input(k))
	}
	if !term.contains("Seconds: 15") {
		t.Errorf("edit line not drawn")
	}
	_ = c.Feed(cui.InputBack)
	_ = c.Feed(cui.InputExecute)
	if s.Interval() != time.Second {
		t.Errorf("interval = %v, want 1s", s.Interval())
	}

	// Esc discards
	_ = c.Feed(cui.InputExecute)
	_ = c.Feed(cui.Input('9'))
	_ = c.Feed(cui.InputEsc)
	if s.Interval() != time.Second {
		t.Errorf("cancelled edit applied: %v", s.Interval())
	}
}

func TestStopReleases(t *testing.T) {
	s, c, _, _, _ := setup(t, time.Hour)
	s.Stop()
	if c.LEDOwner(0) != 0 {
		t.Errorf("LED still owned")
	}
	if c.Root() != nil {
		t.Errorf("menu still registered")
	}
}
