// Package console assembles a running CUI from a Config: LED and button
// devices on the platform's pins, the UART transport, the heartbeat client
// and the bus that ties them together.
package console

import (
	"context"
	"strconv"
	"sync"

	"devicecui-go/bus"
	"devicecui-go/errcode"
	"devicecui-go/services/config"
	"devicecui-go/services/cui"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/devices/gpio_button"
	"devicecui-go/services/hal/devices/led"
	"devicecui-go/services/hal/platform"
	"devicecui-go/services/hal/uartio"
	"devicecui-go/services/heartbeat"
	"devicecui-go/x/logx"
)

// Platform is what the board provides. Port may be nil for a console with
// no terminal.
type Platform struct {
	Pins hal.PinFactory
	Port hal.UARTPort
}

type Console struct {
	cfg config.Config

	Bus  *bus.Bus
	conn *bus.Connection

	worker    *hal.EdgeWorker
	group     *gpio_button.Group
	buttons   []*gpio_button.Device
	leds      []*led.Device
	transport *uartio.Transport
	stopIO    context.CancelFunc

	CUI       *cui.CUI
	Heartbeat *heartbeat.Service

	closeOnce sync.Once
}

// New builds every device named in cfg. Nothing runs until Run.
func New(cfg config.Config, pf Platform) (*Console, error) {
	c := &Console{
		cfg:    cfg,
		Bus:    bus.NewBus(32),
		worker: hal.NewEdgeWorker(0, 0),
	}
	c.conn = c.Bus.NewConnection("console")
	c.group = gpio_button.NewGroup(c.worker)

	var ledDevs []hal.LEDDevice
	for i, s := range cfg.LEDs {
		pin, ok := byNumber(pf.Pins, s.Num)
		if !ok {
			c.closeDevices()
			return nil, errcode.Wrap(errcode.UnknownPin, "led "+strconv.Itoa(i), nil)
		}
		d, err := led.New(led.Params{Pin: pin, ActiveLow: s.ActiveLow})
		if err != nil {
			c.closeDevices()
			return nil, err
		}
		c.leds = append(c.leds, d)
		ledDevs = append(ledDevs, d)
	}

	var btnDevs []hal.ButtonDevice
	for i, s := range cfg.Buttons {
		pin, ok := byNumber(pf.Pins, s.Num)
		if !ok {
			c.closeDevices()
			return nil, errcode.Wrap(errcode.UnknownPin, "button "+strconv.Itoa(i), nil)
		}
		d, err := c.group.Add(gpio_button.Params{
			ID:        "btn" + strconv.Itoa(i),
			Pin:       platform.IRQ(pin),
			Pull:      s.Pull,
			ActiveLow: s.ActiveLow,
			LongPress: cfg.CUI.LongPress,
		})
		if err != nil {
			c.closeDevices()
			return nil, err
		}
		c.buttons = append(c.buttons, d)
		btnDevs = append(btnDevs, d)
	}

	p := cui.Params{
		Buttons:        btnDevs,
		LEDs:           ledDevs,
		Conn:           c.conn,
		MaxClients:     cfg.CUI.MaxClients,
		MaxMenus:       cfg.CUI.MaxMenus,
		LineWidth:      cfg.CUI.LineWidth,
		BlinkPeriod:    cfg.CUI.Blink,
		MultiMenuTitle: cfg.CUI.Title,
	}
	if pf.Port != nil {
		c.transport = uartio.New(uartio.Config{Port: pf.Port, Conn: c.conn})
		p.Terminal = c.transport
		p.InputTopic = c.transport.Topic()
	}
	ui, err := cui.New(p)
	if err != nil {
		c.closeDevices()
		return nil, err
	}
	c.CUI = ui

	hbLED := cfg.Heartbeat.LED
	if hbLED >= len(c.leds) {
		hbLED = -1
	}
	hbBtn := -1
	if len(c.buttons) > 0 {
		hbBtn = 0
	}
	c.Heartbeat = heartbeat.New(heartbeat.Params{
		CUI:      ui,
		Interval: cfg.Heartbeat.Interval,
		LED:      hbLED,
		Button:   hbBtn,
	})
	return c, nil
}

func byNumber(f hal.PinFactory, n int) (hal.GPIOPin, bool) {
	if f == nil {
		return nil, false
	}
	return f.ByNumber(n)
}

// Run starts the workers and clients and serves menu input until ctx is
// done. The console is closed on return.
func (c *Console) Run(ctx context.Context) error {
	defer c.Close()

	c.worker.Start(ctx)
	go c.group.Run(ctx)
	if c.transport != nil {
		// The transport outlives ctx so Close can still clear the screen.
		ioCtx, stop := context.WithCancel(context.Background())
		c.stopIO = stop
		c.transport.Start(ioCtx)
	}
	config.NewConfigService(c.cfg).Start(ctx, c.conn)
	if err := c.Heartbeat.Start(ctx, c.conn); err != nil {
		return err
	}
	logx.Infof("console", "running: %d leds, %d buttons, uart=%v", len(c.leds), len(c.buttons), c.transport != nil)

	if c.transport == nil {
		<-ctx.Done()
		return nil
	}
	return c.CUI.Run(ctx)
}

// Close stops the heartbeat and tears down the CUI, which closes the
// devices and the transport.
func (c *Console) Close() {
	c.closeOnce.Do(func() {
		if c.Heartbeat != nil {
			c.Heartbeat.Stop()
		}
		if c.CUI != nil {
			_ = c.CUI.Close()
		}
		if c.stopIO != nil {
			c.stopIO()
		}
		if c.transport != nil {
			st := c.transport.Stats()
			logx.Infof("console", "uart writes=%d drops=%d write_errs=%d read_errs=%d input_drops=%d",
				st.Writes, st.Drops, st.WriteErrors, st.ReadErrors, st.InputDrops)
		}
		if n := c.worker.ISRDrops(); n > 0 {
			logx.Infof("console", "%d button interrupts dropped", n)
		}
		c.conn.Disconnect()
	})
}

// closeDevices undoes a partial New.
func (c *Console) closeDevices() {
	for _, d := range c.buttons {
		_ = d.Close()
	}
	for _, d := range c.leds {
		_ = d.Close()
	}
}
