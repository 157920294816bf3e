//go:build rp2040

package platform

import (
	"context"
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"devicecui-go/errcode"
	"devicecui-go/services/hal"
)

// ---- GPIO ----

// MCUPins maps logical numbers directly to machine.Pin(n), matching Pico GP
// numbering.
type MCUPins struct{}

func (MCUPins) ByNumber(n int) (hal.GPIOPin, bool) {
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull hal.Pull) error {
	var mode machine.PinMode
	switch pull {
	case hal.PullUp:
		mode = machine.PinInputPullup
	case hal.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

func (r *rp2Pin) Number() int { return r.n }

func (r *rp2Pin) SetIRQ(edge hal.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e hal.Edge) machine.PinChange {
	switch e {
	case hal.EdgeRising:
		return machine.PinRising
	case hal.EdgeFalling:
		return machine.PinFalling
	case hal.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- I²C ----

// I2C0 configures i2c0 on the board-default pins.
func I2C0(hz uint32) (drivers.I2C, error) {
	if hz == 0 {
		hz = 400 * machine.KHz
	}
	b := machine.I2C0
	if err := b.Configure(machine.I2CConfig{
		Frequency: hz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, errcode.Wrap(errcode.Failure, "i2c0", err)
	}
	return b, nil
}

// ---- UART ----

// UARTConfig selects a hardware UART and its pins. Zero baud keeps the
// uartx default.
type UARTConfig struct {
	ID       int // 0 or 1
	Baud     uint32
	TX, RX   int
	DataBits uint8
	StopBits uint8
	Parity   string
}

// OpenUART configures uart0/uart1 for the console.
func OpenUART(cfg UARTConfig) (hal.UARTPort, error) {
	var hw *uartx.UART
	switch cfg.ID {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, errcode.Wrap(errcode.InvalidParam, "uart", nil)
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, errcode.Wrap(errcode.UARTFailure, "uart configure", err)
	}
	p := &rp2UART{u: hw}
	if cfg.DataBits != 0 || cfg.StopBits != 0 || cfg.Parity != "" {
		db, sb := cfg.DataBits, cfg.StopBits
		if db == 0 {
			db = 8
		}
		if sb == 0 {
			sb = 1
		}
		if err := p.SetFormat(db, sb, parityCode(cfg.Parity)); err != nil {
			return nil, errcode.Wrap(errcode.UARTFailure, "uart format", err)
		}
	}
	return p, nil
}

func parityCode(s string) uint8 {
	switch s {
	case "even":
		return 1
	case "odd":
		return 2
	default:
		return 0
	}
}

// rp2UART adapts uartx to hal.UARTPort.
type rp2UART struct{ u *uartx.UART }

func (p *rp2UART) WriteByte(b byte) error      { return p.u.WriteByte(b) }
func (p *rp2UART) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2UART) Buffered() int               { return p.u.Buffered() }
func (p *rp2UART) Read(b []byte) (int, error)  { return p.u.Read(b) }
func (p *rp2UART) Readable() <-chan struct{}   { return p.u.Readable() }
func (p *rp2UART) SetBaudRate(br uint32)       { p.u.SetBaudRate(br) }

func (p *rp2UART) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, b)
}

func (p *rp2UART) SetFormat(databits, stopbits, parity uint8) error {
	var par uartx.UARTParity
	switch parity {
	case 1:
		par = uartx.ParityEven
	case 2:
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return p.u.SetFormat(databits, stopbits, par)
}
