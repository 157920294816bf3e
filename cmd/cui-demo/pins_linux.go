//go:build !rp2040

package main

import (
	"devicecui-go/services/config"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/platform"
	"devicecui-go/x/logx"
)

// openPins maps Pi GPIO unless simulation is selected. Without a Pi it
// falls back to simulated pins unless --rpi insisted.
func openPins(cfg config.Config, must bool) (hal.PinFactory, func(), error) {
	if cfg.Sim {
		return platform.NewSimPins(), func() {}, nil
	}
	pi, err := platform.OpenRPi()
	if err != nil {
		if must {
			return nil, nil, err
		}
		logx.Info("main", "no GPIO, using simulated pins")
		return platform.NewSimPins(), func() {}, nil
	}
	return pi, func() { _ = pi.Close() }, nil
}
