// Package heartbeat is a small CUI client: it counts beats on a status
// line, pulses an LED, and offers a menu to pause it or change its rate.
package heartbeat

import (
	"context"
	"strconv"
	"sync"
	"time"

	"devicecui-go/bus"
	"devicecui-go/services/config"
	"devicecui-go/services/cui"
	"devicecui-go/services/hal"
	"devicecui-go/x/logx"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

const (
	DefaultInterval = time.Second
	maxIntervalSecs = 3600
)

type Params struct {
	CUI      *cui.CUI
	Interval time.Duration
	LED      int // -1 for none
	Button   int // -1 for none; click pauses, long click blinks
}

type Service struct {
	p  Params
	id cui.ClientID

	line    cui.LineID
	menu    *cui.Menu
	setRate *cui.Intercept

	mu       sync.Mutex
	interval time.Duration
	paused   bool
	beats    uint64
	started  time.Time
	edit     []byte
	reset    chan time.Duration
}

func New(p Params) *Service {
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	s := &Service{p: p, interval: p.Interval, reset: make(chan time.Duration, 1)}
	s.setRate = cui.NewIntercept("Set interval (s)", s.intervalIntercept)
	s.menu = cui.NewMenu("Heartbeat", s.update,
		cui.NewAction("Pause / resume", func(int) { s.togglePause() }),
		cui.NewAction("Blink LED 3x", func(int) { s.blink(3) }),
		s.setRate,
	)
	return s
}

// Menu returns the client's menu.
func (s *Service) Menu() *cui.Menu { return s.menu }

// Interval returns the current beat period.
func (s *Service) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Service) Beats() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beats
}

func (s *Service) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Start opens the client and acquires what it can. A missing LED or button
// is logged and skipped; failing to open the client is an error.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	c := s.p.CUI
	id, err := c.Open("heartbeat", 1)
	if err != nil {
		return err
	}
	s.id = id

	if s.line, err = c.StatusLineRequest(id, "Heartbeat"); err != nil {
		logx.Infof("heartbeat", "no status line: %v", err)
		s.line = -1
	}
	if s.p.LED >= 0 {
		if err := c.LEDRequest(id, s.p.LED); err != nil {
			logx.Infof("heartbeat", "led %d: %v", s.p.LED, err)
			s.p.LED = -1
		}
	}
	if s.p.Button >= 0 {
		if err := c.ButtonRequest(id, s.p.Button, s.onButton); err != nil {
			logx.Infof("heartbeat", "button %d: %v", s.p.Button, err)
			s.p.Button = -1
		}
	}
	if err := c.RegisterMenu(id, s.menu); err != nil {
		logx.Infof("heartbeat", "menu: %v", err)
	}

	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()
	s.print()

	var cfgSub *bus.Subscription
	if conn != nil {
		cfgSub = conn.Subscribe(topicConfigHeartbeat)
	}
	go s.serviceLoop(ctx, cfgSub)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, cfgSub *bus.Subscription) {
	var cfgCh <-chan *bus.Message
	if cfgSub != nil {
		defer cfgSub.Unsubscribe()
		cfgCh = cfgSub.Channel()
	}
	tick := time.NewTicker(s.Interval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("heartbeat", "stopping")
			return
		case <-tick.C:
			s.beat()
		case d := <-s.reset:
			tick.Reset(d)
		case msg, ok := <-cfgCh:
			if !ok {
				cfgCh = nil
				continue
			}
			if d, ok := intervalFrom(msg.Payload); ok {
				s.setInterval(d)
			}
		}
	}
}

// intervalFrom accepts the typed config section or a decoded JSON object
// with "interval" in seconds.
func intervalFrom(v any) (time.Duration, bool) {
	switch p := v.(type) {
	case config.Heartbeat:
		return p.Interval, p.Interval > 0
	case map[string]any:
		if f, ok := p["interval"].(float64); ok && f > 0 {
			return time.Duration(f * float64(time.Second)), true
		}
	}
	return 0, false
}

func (s *Service) beat() {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return
	}
	s.beats++
	s.mu.Unlock()

	// A blink asked for from the menu or button runs to completion.
	if s.p.LED >= 0 && s.p.CUI.LEDState(s.p.LED) != hal.LEDBlinking {
		_ = s.p.CUI.LEDToggle(s.id, s.p.LED)
	}
	s.print()
}

func (s *Service) print() {
	if s.line < 0 {
		return
	}
	s.mu.Lock()
	beats, paused, iv := s.beats, s.paused, s.interval
	up := time.Since(s.started).Truncate(time.Second)
	s.mu.Unlock()

	state := "every " + iv.String()
	if paused {
		state = "paused"
	}
	if err := s.p.CUI.StatusLinePrintf(s.id, s.line, "%d beats, up %s, %s", beats, up, state); err != nil {
		logx.Debugf("heartbeat", "status: %v", err)
	}
}

func (s *Service) setInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	select {
	case s.reset <- d:
	default:
		// a pending reset is replaced by the newest value
		select {
		case <-s.reset:
		default:
		}
		s.reset <- d
	}
	logx.Infof("heartbeat", "interval set to %s", d)
	s.print()
}

func (s *Service) togglePause() {
	s.mu.Lock()
	s.paused = !s.paused
	paused := s.paused
	s.mu.Unlock()
	if paused && s.p.LED >= 0 {
		_ = s.p.CUI.LEDOff(s.id, s.p.LED)
	}
	s.print()
}

func (s *Service) blink(n uint16) {
	if s.p.LED >= 0 {
		_ = s.p.CUI.LEDBlink(s.id, s.p.LED, n)
	}
}

func (s *Service) onButton(_ int, ev hal.ButtonEvent) {
	switch ev {
	case hal.ButtonClick:
		s.togglePause()
	case hal.ButtonLongClick:
		s.blink(3)
	}
}

// update is the menu's input hook.
func (s *Service) update() {
	if err := s.p.CUI.ProcessMenuUpdate(); err != nil {
		logx.Debugf("heartbeat", "menu update: %v", err)
	}
}

// intervalIntercept edits the beat period in whole seconds. Digits append,
// Back deletes, Execute applies and Esc discards.
func (s *Service) intervalIntercept(in cui.Input, lines *cui.Lines, cur *cui.Cursor) {
	switch in {
	case cui.SignalPreview:
		lines[1] = "Now " + s.Interval().String() + ", Enter to edit"
		return
	case cui.SignalStart:
		s.edit = s.edit[:0]
	case cui.SignalCancel:
		s.edit = s.edit[:0]
		return
	case cui.SignalStop:
		if n, err := strconv.Atoi(string(s.edit)); err == nil && n > 0 && n <= maxIntervalSecs {
			s.setInterval(time.Duration(n) * time.Second)
		}
		s.edit = s.edit[:0]
		return
	case cui.InputBack:
		if len(s.edit) > 0 {
			s.edit = s.edit[:len(s.edit)-1]
		}
	default:
		if in >= '0' && in <= '9' && len(s.edit) < 4 {
			s.edit = append(s.edit, byte(in))
		}
	}
	const prompt = "Seconds: "
	lines[0] = "Set interval (s)"
	lines[1] = prompt + string(s.edit)
	lines[2] = "Enter applies, Esc cancels"
	cur.Row, cur.Col = 2, len(prompt)+len(s.edit)+1
}

// Stop gives back the menu, LED and button. Clients live until the CUI is
// closed, so the handle itself stays open.
func (s *Service) Stop() {
	c := s.p.CUI
	_ = c.DeregisterMenu(s.id, s.menu)
	if s.p.LED >= 0 {
		_ = c.LEDOff(s.id, s.p.LED)
		_ = c.LEDRelease(s.id, s.p.LED)
	}
	if s.p.Button >= 0 {
		_ = c.ButtonRelease(s.id, s.p.Button)
	}
}
