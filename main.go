//go:build rp2040

// Firmware entry: the device console on a Pico's UART, with LEDs and
// buttons on MCU pins and optionally a PCA9555 expander.
package main

import (
	"context"
	"time"

	"devicecui-go/drivers/pca9555"
	"devicecui-go/services/config"
	"devicecui-go/services/console"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/platform"
	"devicecui-go/x/logx"
)

// device is overridden at link time: -ldflags "-X main.device=pico_panel".
var device = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	logx.Info("main", "boot", device)

	cfg, ok := config.Default(device)
	if !ok {
		logx.Info("main", "unknown device", device)
		return
	}
	logx.SetDebug(cfg.Debug)

	pins := platform.Pins{platform.MCUPins{}}
	if cfg.Expander.Enabled {
		if f, err := expander(cfg.Expander); err != nil {
			logx.Info("main", "expander:", err)
		} else {
			pins = append(pins, f)
		}
	}

	port, err := platform.OpenUART(platform.UARTConfig{
		ID:       cfg.UART.ID,
		Baud:     uint32(cfg.UART.Baud),
		TX:       cfg.UART.TX,
		RX:       cfg.UART.RX,
		DataBits: cfg.UART.DataBits,
		StopBits: cfg.UART.StopBits,
		Parity:   cfg.UART.Parity,
	})
	if err != nil {
		logx.Info("main", "uart:", err)
	}

	c, err := console.New(cfg, console.Platform{Pins: pins, Port: port})
	if err != nil {
		logx.Info("main", "console:", err)
		return
	}
	if err := c.Run(context.Background()); err != nil {
		logx.Info("main", "console stopped:", err)
	}
}

func expander(e config.Expander) (hal.PinFactory, error) {
	bus, err := platform.I2C0(0)
	if err != nil {
		return nil, err
	}
	d := pca9555.New(bus)
	if e.Addr != 0 {
		d.Address = e.Addr
	}
	if err := d.Configure(); err != nil {
		return nil, err
	}
	return platform.ExpanderPins{Dev: d, Base: e.Base}, nil
}
