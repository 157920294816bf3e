package cui

import (
	"context"
	"time"

	"devicecui-go/services/hal/uartio"
	"devicecui-go/x/logx"
)

// Assert prints msg in red on the row just above the status area. With spin
// it never returns and toggles every managed LED. It takes no locks and
// checks no ownership.
func (c *CUI) Assert(msg string, spin bool) {
	_ = c.AssertContext(context.Background(), msg, spin)
}

// AssertContext is Assert with a way out: the LED loop stops when ctx is
// done.
func (c *CUI) AssertContext(ctx context.Context, msg string, spin bool) error {
	logx.Info("cui", "assert:", msg)
	if c.p.Terminal != nil {
		head := appendStatusHead(make([]byte, 0, 32), InitialStatusOffset-1)
		_ = c.p.Terminal.WriteFrame(uartio.Frame{Data: head})

		body := make([]byte, 0, len(msg)+16)
		body = append(body, escRed...)
		body = append(body, msg...)
		body = append(body, frameEnd)
		body = append(body, escReset...)
		_ = c.p.Terminal.WriteFrame(uartio.Frame{Data: body})
	}
	if !spin {
		return nil
	}
	return c.ledAssert(ctx)
}

func (c *CUI) ledAssert(ctx context.Context) error {
	if len(c.leds) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, l := range c.leds {
		l.dev.StopBlink()
	}
	t := time.NewTicker(c.p.AssertPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			for _, l := range c.leds {
				l.dev.Toggle()
			}
		}
	}
}
