//go:build !linux && !rp2040

package main

import (
	"devicecui-go/errcode"
	"devicecui-go/services/config"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/platform"
)

func openPins(_ config.Config, must bool) (hal.PinFactory, func(), error) {
	if must {
		return nil, nil, errcode.Wrap(errcode.NotManagingBtns, "rpio", nil)
	}
	return platform.NewSimPins(), func() {}, nil
}
