package config

import (
	"context"
	"testing"
	"time"

	"devicecui-go/bus"
	"devicecui-go/errcode"
	"devicecui-go/services/hal"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultCopies(t *testing.T) {
	a, ok := Default("pico")
	if !ok {
		t.Fatal("pico missing")
	}
	a.LEDs[0].Num = 99
	b, _ := Default("pico")
	if b.LEDs[0].Num != 25 {
		t.Errorf("Default shares slices: LED0 = %d", b.LEDs[0].Num)
	}
	if b.Device != "pico" {
		t.Errorf("Device = %q", b.Device)
	}
	if _, ok := Default("toaster"); ok {
		t.Errorf("unknown device found")
	}
}

func TestParsePins(t *testing.T) {
	got, err := ParsePins(`25, "14:low:up" 15:LOW:down`)
	if err != nil {
		t.Fatal(err)
	}
	want := []PinSpec{
		{Num: 25},
		{Num: 14, ActiveLow: true, Pull: hal.PullUp},
		{Num: 15, ActiveLow: true, Pull: hal.PullDown},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d pins, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pin %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := ParsePins("x"); errcode.Of(err) != errcode.UnknownPin {
		t.Errorf("bad number: %v", err)
	}
	if _, err := ParsePins("3:sideways"); errcode.Of(err) != errcode.InvalidParam {
		t.Errorf("bad option: %v", err)
	}
	if _, err := ParsePins(`"3`); errcode.Of(err) != errcode.InvalidParam {
		t.Errorf("bad quoting: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	c, _ := Default("host")
	err := c.ApplyEnv(env(map[string]string{
		"CUI_UART":       "/dev/ttyUSB0",
		"CUI_BAUD":       "9600",
		"CUI_LEDS":       "5 6:low",
		"CUI_TITLE":      "Lab",
		"CUI_LONG_PRESS": "1500ms",
		"CUI_DEBUG":      "true",
		"CUI_SIM":        "0",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if c.UART.Path != "/dev/ttyUSB0" || c.UART.Baud != 9600 {
		t.Errorf("uart = %+v", c.UART)
	}
	if len(c.LEDs) != 2 || !c.LEDs[1].ActiveLow {
		t.Errorf("leds = %+v", c.LEDs)
	}
	if c.CUI.Title != "Lab" || c.CUI.LongPress != 1500*time.Millisecond {
		t.Errorf("cui = %+v", c.CUI)
	}
	if !c.Debug || c.Sim {
		t.Errorf("debug=%v sim=%v", c.Debug, c.Sim)
	}
	// untouched
	if c.CUI.LineWidth != 80 || len(c.Buttons) != 1 {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	for key, val := range map[string]string{
		"CUI_BAUD":      "fast",
		"CUI_HEARTBEAT": "often",
		"CUI_DEBUG":     "maybe",
	} {
		c, _ := Default("host")
		err := c.ApplyEnv(env(map[string]string{key: val}))
		if errcode.Of(err) != errcode.InvalidParam {
			t.Errorf("%s=%s: err = %v", key, val, err)
		}
	}
}

func TestPublishRetained(t *testing.T) {
	c, _ := Default("pico")
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	NewConfigService(c).Start(context.Background(), conn)

	sub := conn.Subscribe(bus.T(configPrefix, "#"))
	got := map[string]any{}
	deadline := time.After(600 * time.Millisecond)
	for len(got) < 7 {
		select {
		case m := <-sub.Channel():
			if !m.Retained {
				t.Errorf("%v not retained", m.Topic)
			}
			got[m.Topic[1]] = m.Payload
		case <-deadline:
			t.Fatalf("timeout, got %d sections", len(got))
		}
	}
	hb, ok := got["heartbeat"].(Heartbeat)
	if !ok || hb.Interval != 2*time.Second {
		t.Errorf("heartbeat = %#v", got["heartbeat"])
	}
	if got["device"] != "pico" {
		t.Errorf("device = %v", got["device"])
	}
}
