// Package cui arbitrates one serial terminal, a set of LEDs and a set of
// buttons between independent clients, and drives a small menu system on
// the terminal.
//
// A CUI value is created with New and torn down with Close. Clients open a
// handle with Open and use it to acquire resources. Menu input is decoded
// from the terminal's holding buffer; the engine never runs client code from
// the transport's read path, it learns about input through the bus.
package cui

import (
	"sync"
	"time"

	"devicecui-go/bus"
	"devicecui-go/errcode"
	"devicecui-go/services/hal"
	"devicecui-go/services/hal/uartio"
	"devicecui-go/x/logx"
)

// Terminal is the serial side of the CUI. *uartio.Transport implements it.
type Terminal interface {
	WriteFrame(f uartio.Frame) error
	TakeInput() (Window, bool)
}

// Defaults.
const (
	DefaultMaxClients     = 3
	DefaultMaxMenus       = 3
	DefaultLineWidth      = 128
	DefaultMaxLabelLen    = 32
	DefaultMaxValueLen    = 128
	DefaultBlinkPeriod    = 500 * time.Millisecond
	DefaultAssertPeriod   = 500 * time.Millisecond
	DefaultMultiMenuTitle = " Device Console "

	// InitialStatusOffset is the first terminal row below the menu area.
	InitialStatusOffset = 5
)

// Params selects what the CUI manages. A class is managed when its devices
// (or the terminal) are supplied.
type Params struct {
	Buttons  []hal.ButtonDevice
	LEDs     []hal.LEDDevice
	Terminal Terminal

	// Conn, when set, carries input-ready events to Run and button events
	// to any subscriber.
	Conn       *bus.Connection
	InputTopic bus.Topic

	MaxClients     int
	MaxMenus       int
	LineWidth      int
	MaxLabelLen    int
	MaxValueLen    int
	BlinkPeriod    time.Duration
	AssertPeriod   time.Duration
	FrameWait      time.Duration
	MultiMenuTitle string
}

func (p *Params) defaults() {
	if p.MaxClients <= 0 {
		p.MaxClients = DefaultMaxClients
	}
	if p.MaxMenus <= 0 {
		p.MaxMenus = DefaultMaxMenus
	}
	if p.LineWidth <= 0 {
		p.LineWidth = DefaultLineWidth
	}
	if p.MaxLabelLen <= 0 {
		p.MaxLabelLen = DefaultMaxLabelLen
	}
	if p.MaxValueLen <= 0 {
		p.MaxValueLen = DefaultMaxValueLen
	}
	if p.BlinkPeriod <= 0 {
		p.BlinkPeriod = DefaultBlinkPeriod
	}
	if p.AssertPeriod <= 0 {
		p.AssertPeriod = DefaultAssertPeriod
	}
	if p.FrameWait <= 0 {
		p.FrameWait = 50 * time.Millisecond
	}
	if p.MultiMenuTitle == "" {
		p.MultiMenuTitle = DefaultMultiMenuTitle
	}
	if p.InputTopic == nil {
		p.InputTopic = uartio.DefaultTopic
	}
}

// CUI is the module context. All former globals live here.
type CUI struct {
	p Params

	initMu      sync.RWMutex
	initialized bool

	clientMu sync.Mutex
	clients  []*client
	nextID   ClientID

	btnMu   sync.Mutex
	buttons []buttonRes

	ledMu sync.Mutex
	leds  []ledRes

	menuMu   sync.Mutex
	menus    []menuRes
	multi    *Menu
	nav      navState
	lines    Lines // last drawn menu view, shared with intercepts
	menuPool *framePool

	statusMu   sync.Mutex
	statusPool *framePool
	overlay    cursorOverlay
}

// New initialises the module and clears the terminal. It fails when nothing
// is managed or the terminal rejects the initial write.
func New(p Params) (*CUI, error) {
	if len(p.Buttons) == 0 && len(p.LEDs) == 0 && p.Terminal == nil {
		return nil, errcode.Wrap(errcode.Failure, "cui init", nil)
	}
	p.defaults()
	c := &CUI{
		p:       p,
		clients: make([]*client, 0, p.MaxClients),
		menus:   make([]menuRes, p.MaxMenus),
	}

	if len(p.Buttons) > 0 {
		c.buttons = make([]buttonRes, len(p.Buttons))
		for i, b := range p.Buttons {
			c.buttons[i].dev = b
			idx := i
			b.SetCallback(hal.ButtonAll, func(ev hal.ButtonEvent) { c.dispatchButton(idx, ev) })
		}
	}
	if len(p.LEDs) > 0 {
		c.leds = make([]ledRes, len(p.LEDs))
		for i, l := range p.LEDs {
			c.leds[i].dev = l
		}
	}
	if p.Terminal != nil {
		frameSize := 3*(p.LineWidth+2) + 64
		c.menuPool = newFramePool(2, frameSize, p.FrameWait)
		c.statusPool = newFramePool(2, p.MaxLabelLen+p.MaxValueLen+64, p.FrameWait)
		c.multi = &Menu{Title: p.MultiMenuTitle}
		if err := c.writeString(c.menuPool, escClear+escLineFeedMod+escCursorHide); err != nil {
			return nil, errcode.Wrap(errcode.Failure, "cui init", err)
		}
	}

	c.initialized = true
	logx.Infof("cui", "init buttons=%d leds=%d uart=%v", len(p.Buttons), len(p.LEDs), p.Terminal != nil)
	return c, nil
}

// Close releases every resource, clears the screen and closes the devices.
// Every later call fails with ModuleUninitialized.
func (c *CUI) Close() error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if !c.initialized {
		return nil
	}

	c.btnMu.Lock()
	for i := range c.buttons {
		c.buttons[i].dev.SetCallback(0, nil)
		_ = c.buttons[i].dev.Close()
		c.buttons[i].owner, c.buttons[i].cb = 0, nil
	}
	c.btnMu.Unlock()

	c.ledMu.Lock()
	for i := range c.leds {
		_ = c.leds[i].dev.Close()
		c.leds[i].owner = 0
	}
	c.ledMu.Unlock()

	if c.p.Terminal != nil {
		c.statusMu.Lock()
		_ = c.writeString(c.statusPool, escClear+escLineFeedMod+escCursorHide)
		if cl, ok := c.p.Terminal.(interface{ Close() }); ok {
			cl.Close()
		}
		c.statusMu.Unlock()
	}

	c.clientMu.Lock()
	c.clients = c.clients[:0]
	c.clientMu.Unlock()

	c.initialized = false
	logx.Info("cui", "closed")
	return nil
}

func (c *CUI) isInitialized() bool {
	c.initMu.RLock()
	defer c.initMu.RUnlock()
	return c.initialized
}

func (c *CUI) checkClient(id ClientID) error {
	if !c.isInitialized() {
		return errcode.ModuleUninitialized
	}
	if c.lookup(id) == nil {
		return errcode.InvalidClientHandle
	}
	return nil
}

func (c *CUI) checkButtons(id ClientID) error {
	if len(c.p.Buttons) == 0 {
		return errcode.NotManagingBtns
	}
	return c.checkClient(id)
}

func (c *CUI) checkLEDs(id ClientID) error {
	if len(c.p.LEDs) == 0 {
		return errcode.NotManagingLeds
	}
	return c.checkClient(id)
}

func (c *CUI) checkUART(id ClientID) error {
	if c.p.Terminal == nil {
		return errcode.NotManagingUart
	}
	return c.checkClient(id)
}

// writeString borrows a frame from pool, fills it with s and submits it.
func (c *CUI) writeString(pool *framePool, s string) error {
	buf, ok := pool.borrow()
	if !ok {
		return errcode.PrevWriteUnfinished
	}
	buf = append(buf, s...)
	return c.p.Terminal.WriteFrame(pool.frame(buf))
}
