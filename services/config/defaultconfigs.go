package config

import (
	"time"

	"devicecui-go/services/hal"
)

// -----------------------------------------------------------------------------
// Built-in configurations, keyed by device ID.
// -----------------------------------------------------------------------------

var embeddedConfigs = map[string]Config{
	// Raspberry Pi Pico: console on uart0 (GP0/GP1), onboard LED plus two
	// panel LEDs, two active-low buttons with pull-ups.
	"pico": {
		UART:      UART{ID: 0, Baud: 115200, TX: 0, RX: 1},
		LEDs:      []PinSpec{{Num: 25}, {Num: 16}, {Num: 17}},
		Buttons:   []PinSpec{{Num: 14, ActiveLow: true, Pull: hal.PullUp}, {Num: 15, ActiveLow: true, Pull: hal.PullUp}},
		CUI:       CUI{LineWidth: 128, Blink: 500 * time.Millisecond, LongPress: time.Second},
		Heartbeat: Heartbeat{Interval: 2 * time.Second, LED: 0},
	},
	// Pico with the front panel on a PCA9555 at 0x20: expander pins 100..115.
	"pico_panel": {
		UART:      UART{ID: 0, Baud: 115200, TX: 0, RX: 1},
		LEDs:      []PinSpec{{Num: 25}, {Num: 100, ActiveLow: true}, {Num: 101, ActiveLow: true}},
		Buttons:   []PinSpec{{Num: 108, ActiveLow: true}, {Num: 109, ActiveLow: true}},
		Expander:  Expander{Enabled: true, Addr: 0x20, Base: 100},
		CUI:       CUI{LineWidth: 128, Blink: 500 * time.Millisecond, LongPress: time.Second},
		Heartbeat: Heartbeat{Interval: 2 * time.Second, LED: 0},
	},
	// Linux host: console on the process's terminal, simulated LEDs and
	// buttons unless a Pi is present.
	"host": {
		UART:      UART{Path: "-", Baud: 115200},
		LEDs:      []PinSpec{{Num: 17}, {Num: 27}},
		Buttons:   []PinSpec{{Num: 22, ActiveLow: true, Pull: hal.PullUp}},
		CUI:       CUI{LineWidth: 80, Blink: 500 * time.Millisecond, LongPress: time.Second},
		Heartbeat: Heartbeat{Interval: time.Second, LED: 0},
		Sim:       true,
	},
}
