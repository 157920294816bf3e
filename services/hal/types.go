// services/hal/types.go
package hal

import (
	"context"
	"time"
)

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// IRQPin extends GPIOPin with interrupts.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// ---- UART abstractions ----

type UARTPort interface {
	// TX
	WriteByte(b byte) error
	Write(p []byte) (int, error)

	// RX
	Buffered() int
	Read(p []byte) (int, error)
	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// ---- Buttons and LEDs ----

// ButtonEvent is a bit mask of button events.
type ButtonEvent uint8

const (
	ButtonPressed ButtonEvent = 1 << iota
	ButtonReleased
	ButtonClick     // released before the long-press duration
	ButtonLongPress // held for the long-press duration
	ButtonLongClick // released after a long press

	ButtonAll = ButtonPressed | ButtonReleased | ButtonClick | ButtonLongPress | ButtonLongClick
)

func (e ButtonEvent) Has(m ButtonEvent) bool { return e&m != 0 }

// ButtonDevice is one physical button with long-press detection.
type ButtonDevice interface {
	Pressed() bool
	// SetCallback installs fn for the events in mask. A nil fn disables
	// delivery.
	SetCallback(mask ButtonEvent, fn func(ButtonEvent))
	Close() error
}

type LEDState uint8

const (
	LEDOff LEDState = iota
	LEDOn
	LEDBlinking
)

// LEDDevice is one indicator LED. GPIO-backed LEDs treat any non-zero
// brightness as fully on.
type LEDDevice interface {
	On(brightness uint8)
	Off()
	Toggle()
	// Blink toggles with the given period for n blinks; BlinkForever
	// keeps going until stopped.
	Blink(period time.Duration, n uint16)
	StopBlink()
	State() LEDState
	Close() error
}

const BlinkForever uint16 = 0xFFFF
