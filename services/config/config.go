// Package config holds the console's wiring and tunables, resolves them
// from built-in per-device defaults plus CUI_* environment overrides, and
// publishes each section as a retained bus message under {"config", ...}.
package config

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"devicecui-go/bus"
	"devicecui-go/errcode"
	"devicecui-go/services/hal"
	"devicecui-go/x/logx"
)

const configPrefix = "config"

// PinSpec is one LED or button wire: "14", "14:low", "14:low:up".
type PinSpec struct {
	Num       int
	ActiveLow bool
	Pull      hal.Pull
}

type UART struct {
	Path     string // host tty; "-" or empty means the process's own terminal
	ID       int    // MCU UART instance
	Baud     int
	TX, RX   int
	DataBits uint8
	StopBits uint8
	Parity   string
}

type Expander struct {
	Enabled bool
	Addr    uint16
	Base    int // pin numbers Base..Base+15 address the expander
}

type CUI struct {
	Title      string
	LineWidth  int
	MaxClients int
	MaxMenus   int
	Blink      time.Duration
	LongPress  time.Duration
}

type Heartbeat struct {
	Interval time.Duration
	LED      int // index into the LED list, -1 for none
}

type Config struct {
	Device    string
	UART      UART
	LEDs      []PinSpec
	Buttons   []PinSpec
	Expander  Expander
	CUI       CUI
	Heartbeat Heartbeat
	LogFile   string
	Debug     bool
	Sim       bool // back LEDs and buttons with simulated pins
}

// Default returns the built-in configuration for device.
func Default(device string) (Config, bool) {
	c, ok := embeddedConfigs[device]
	if !ok {
		return Config{}, false
	}
	c.Device = device
	c.LEDs = append([]PinSpec(nil), c.LEDs...)
	c.Buttons = append([]PinSpec(nil), c.Buttons...)
	return c, true
}

// ApplyEnv overrides fields from CUI_* variables. Unset variables leave the
// field alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var err error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" && err == nil {
			n, e := strconv.Atoi(strings.TrimSpace(v))
			if e != nil {
				err = errcode.Wrap(errcode.InvalidParam, key, e)
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" && err == nil {
			d, e := time.ParseDuration(strings.TrimSpace(v))
			if e != nil {
				err = errcode.Wrap(errcode.InvalidParam, key, e)
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v := getenv(key); v != "" && err == nil {
			b, e := strconv.ParseBool(strings.TrimSpace(v))
			if e != nil {
				err = errcode.Wrap(errcode.InvalidParam, key, e)
				return
			}
			*dst = b
		}
	}
	pins := func(key string, dst *[]PinSpec) {
		if v := getenv(key); v != "" && err == nil {
			ps, e := ParsePins(v)
			if e != nil {
				err = e
				return
			}
			*dst = ps
		}
	}

	str("CUI_UART", &c.UART.Path)
	num("CUI_BAUD", &c.UART.Baud)
	str("CUI_PARITY", &c.UART.Parity)
	pins("CUI_LEDS", &c.LEDs)
	pins("CUI_BUTTONS", &c.Buttons)
	str("CUI_TITLE", &c.CUI.Title)
	num("CUI_LINE_WIDTH", &c.CUI.LineWidth)
	dur("CUI_BLINK", &c.CUI.Blink)
	dur("CUI_LONG_PRESS", &c.CUI.LongPress)
	dur("CUI_HEARTBEAT", &c.Heartbeat.Interval)
	str("CUI_LOG", &c.LogFile)
	flag("CUI_DEBUG", &c.Debug)
	flag("CUI_SIM", &c.Sim)
	return err
}

// ParsePins reads a shell-style list of pin specs, e.g. `25 "14:low:up"`.
// Commas also separate entries.
func ParsePins(s string) ([]PinSpec, error) {
	words, err := shlex.Split(strings.ReplaceAll(s, ",", " "))
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParam, "pins", err)
	}
	out := make([]PinSpec, 0, len(words))
	for _, w := range words {
		p, err := parsePin(w)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePin(w string) (PinSpec, error) {
	parts := strings.Split(w, ":")
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 0 {
		return PinSpec{}, errcode.Wrap(errcode.UnknownPin, "pin "+w, err)
	}
	p := PinSpec{Num: n}
	for _, opt := range parts[1:] {
		switch strings.ToLower(opt) {
		case "low", "active-low", "inv":
			p.ActiveLow = true
		case "high":
			p.ActiveLow = false
		case "up", "down", "pullup", "pulldown", "none":
			p.Pull = hal.ParsePull(opt)
		default:
			return PinSpec{}, errcode.Wrap(errcode.InvalidParam, "pin option "+opt, nil)
		}
	}
	return p, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	cfg Config
}

func NewConfigService(cfg Config) *ConfigService {
	return &ConfigService{cfg: cfg}
}

// Publish posts every section as a retained message so late subscribers
// still see it.
func (s *ConfigService) Publish(conn *bus.Connection) {
	c := s.cfg
	sections := []struct {
		key string
		val any
	}{
		{"device", c.Device},
		{"uart", c.UART},
		{"leds", c.LEDs},
		{"buttons", c.Buttons},
		{"expander", c.Expander},
		{"cui", c.CUI},
		{"heartbeat", c.Heartbeat},
	}
	for _, sec := range sections {
		conn.Publish(bus.NewMessage(bus.T(configPrefix, sec.key), sec.val, true))
	}
	logx.Infof("config", "published %d sections for %q", len(sections), c.Device)
}

// Start publishes in the background.
func (s *ConfigService) Start(_ context.Context, conn *bus.Connection) {
	go s.Publish(conn)
}
