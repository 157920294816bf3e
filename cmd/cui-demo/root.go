//go:build !rp2040

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/matishsiao/goInfo"
	"github.com/spf13/cobra"

	"devicecui-go/errcode"
	"devicecui-go/services/config"
	"devicecui-go/services/console"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/platform"
	"devicecui-go/x/logx"
	"devicecui-go/x/strx"
)

var version = "v0.1.0"

type rootOptions struct {
	device string
	serial string
	baud   int
	sim    bool
	rpi    bool
	logTo  string
	debug  bool
	title  string
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "cui-demo",
		Short:        "Serve the device console on a terminal",
		SilenceUsage: true,
		Version:      version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, opts)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.device, "device", "host", "Built-in configuration to start from")
	f.StringVar(&opts.serial, "serial", "", "Serial device for the console (default: this terminal)")
	f.IntVar(&opts.baud, "baud", 0, "Serial baud rate")
	f.BoolVar(&opts.sim, "sim", false, "Back LEDs and buttons with simulated pins")
	f.BoolVar(&opts.rpi, "rpi", false, "Drive LEDs and buttons on Raspberry Pi GPIO")
	f.StringVar(&opts.logTo, "log", "", "Write diagnostics to this file")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	f.StringVar(&opts.title, "title", "", "Multi-menu title")

	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

// resolve layers flags over CUI_* variables over the built-in defaults.
func resolve(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, ok := config.Default(opts.device)
	if !ok {
		return cfg, errcode.Wrap(errcode.InvalidParam, "device "+opts.device, nil)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("serial") {
		cfg.UART.Path = opts.serial
	}
	if f.Changed("baud") {
		cfg.UART.Baud = opts.baud
	}
	if f.Changed("sim") {
		cfg.Sim = opts.sim
	}
	if opts.rpi {
		cfg.Sim = false
	}
	if f.Changed("log") {
		cfg.LogFile = opts.logTo
	}
	if f.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if opts.title != "" {
		cfg.CUI.Title = opts.title
	}
	return cfg, nil
}

func usesStdio(cfg config.Config) bool {
	return cfg.UART.Path == "" || cfg.UART.Path == "-"
}

func runConsole(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := resolve(cmd, opts)
	if err != nil {
		return err
	}

	// The terminal carries the console, so diagnostics go elsewhere.
	if usesStdio(cfg) && cfg.LogFile == "" {
		logx.SetOutput(io.Discard)
	} else if err := logx.Configure(cfg.LogFile); err != nil {
		return err
	}
	logx.SetDebug(cfg.Debug)
	banner()

	pins, closePins, err := openPins(cfg, opts.rpi)
	if err != nil {
		return err
	}
	defer closePins()

	var port interface {
		hal.UARTPort
		Close() error
	}
	if usesStdio(cfg) {
		port, err = platform.OpenStdio()
	} else {
		port, err = platform.OpenSerial(platform.SerialConfig{
			Path:     cfg.UART.Path,
			Baud:     cfg.UART.Baud,
			DataBits: cfg.UART.DataBits,
			StopBits: cfg.UART.StopBits,
			Parity:   cfg.UART.Parity,
		})
	}
	if err != nil {
		return err
	}
	defer port.Close()

	c, err := console.New(cfg, console.Platform{Pins: pins, Port: port})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.Run(ctx)
}

func banner() {
	gi, err := goInfo.GetInfo()
	if err != nil {
		logx.Infof("main", "cui-demo %s starting", version)
		return
	}
	logx.Infof("main", "cui-demo %s on %s %s/%s (%s %s)", version,
		strx.Coalesce(gi.Hostname, "localhost"), gi.GoOS, gi.Platform, gi.Kernel, gi.Core)
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "device:    %s\n", cfg.Device)
			fmt.Fprintf(out, "uart:      %+v\n", cfg.UART)
			fmt.Fprintf(out, "leds:      %+v\n", cfg.LEDs)
			fmt.Fprintf(out, "buttons:   %+v\n", cfg.Buttons)
			fmt.Fprintf(out, "cui:       %+v\n", cfg.CUI)
			fmt.Fprintf(out, "heartbeat: %+v\n", cfg.Heartbeat)
			fmt.Fprintf(out, "sim:       %v\n", cfg.Sim)
			return nil
		},
	}
}
