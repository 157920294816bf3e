// Package pca9555 drives the PCA9555 16-bit I²C GPIO expander. Boards use
// it for front-panel LEDs and buttons when the MCU is short of pins.
//
// Pins are numbered 0..15: port 0 is 0..7, port 1 is 8..15. The driver
// caches the output and configuration registers so single-pin updates cost
// one write.
package pca9555

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// Address is the base address with A2..A0 tied low.
const Address = 0x20

const (
	regInput0    = 0x00
	regOutput0   = 0x02
	regPolarity0 = 0x04
	regConfig0   = 0x06
)

const NumPins = 16

var ErrPin = errors.New("pca9555: pin out of range")

type Device struct {
	bus     drivers.I2C
	Address uint16

	mu  sync.Mutex
	out uint16
	cfg uint16 // 1 = input
	w   [3]byte
	r   [2]byte
}

func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address, cfg: 0xFFFF, out: 0xFFFF}
}

// Configure reads back the output and direction registers and clears any
// polarity inversion.
func (d *Device) Configure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, err := d.readPair(regOutput0)
	if err != nil {
		return err
	}
	cfg, err := d.readPair(regConfig0)
	if err != nil {
		return err
	}
	d.out, d.cfg = out, cfg
	return d.writePair(regPolarity0, 0)
}

// SetInput switches pin to input (true) or output (false).
func (d *Device) SetInput(pin int, input bool) error {
	if pin < 0 || pin >= NumPins {
		return ErrPin
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.cfg
	if input {
		cfg |= 1 << pin
	} else {
		cfg &^= 1 << pin
	}
	if cfg == d.cfg {
		return nil
	}
	if err := d.writePair(regConfig0, cfg); err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

// Write sets the output latch of pin.
func (d *Device) Write(pin int, level bool) error {
	if pin < 0 || pin >= NumPins {
		return ErrPin
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.out
	if level {
		out |= 1 << pin
	} else {
		out &^= 1 << pin
	}
	if err := d.writePair(regOutput0, out); err != nil {
		return err
	}
	d.out = out
	return nil
}

// Latched returns the cached output level of pin.
func (d *Device) Latched(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out&(1<<pin) != 0
}

// Read returns the input level of pin. Output pins read back their driven
// level.
func (d *Device) Read(pin int) (bool, error) {
	if pin < 0 || pin >= NumPins {
		return false, ErrPin
	}
	v, err := d.ReadAll()
	if err != nil {
		return false, err
	}
	return v&(1<<pin) != 0, nil
}

// ReadAll returns both input ports, port 1 in the high byte.
func (d *Device) ReadAll() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readPair(regInput0)
}

// The device auto-increments within a register pair, so port 0 and port 1
// move in one transaction.

func (d *Device) readPair(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}

func (d *Device) writePair(reg byte, v uint16) error {
	d.w[0] = reg
	d.w[1] = byte(v)
	d.w[2] = byte(v >> 8)
	return d.bus.Tx(d.Address, d.w[:3], nil)
}
