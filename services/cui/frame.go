package cui

import (
	"time"

	"devicecui-go/services/hal/uartio"
)

// Terminal escape codes and framing bytes.
const (
	escClear       = "\x1b[2J"
	escClearUp     = "\x1b[1J"
	escClearLine   = "\x1b[2K"
	escCursorHide  = "\x1b[?25l"
	escCursorShow  = "\x1b[?25h"
	escCursorHome  = "\x1b[H"
	escLineFeedMod = "\x1b[20h"
	escRed         = "\x1b[31m"
	escReset       = "\x1b[0m"

	menuStart   = 0x01
	statusStart = 0x02
	frameEnd    = 0x03

	nlcr = "\n\r"
)

// framePool hands out frame buffers and takes them back once the transport
// has finished with them, so a buffer is never refilled while a write still
// references it.
type framePool struct {
	free chan []byte
	wait time.Duration
}

func newFramePool(n, size int, wait time.Duration) *framePool {
	p := &framePool{free: make(chan []byte, n), wait: wait}
	for i := 0; i < n; i++ {
		p.free <- make([]byte, 0, size)
	}
	return p
}

func (p *framePool) borrow() ([]byte, bool) {
	select {
	case b := <-p.free:
		return b[:0], true
	default:
	}
	t := time.NewTimer(p.wait)
	defer t.Stop()
	select {
	case b := <-p.free:
		return b[:0], true
	case <-t.C:
		return nil, false
	}
}

func (p *framePool) give(b []byte) {
	select {
	case p.free <- b[:0]:
	default:
	}
}

func (p *framePool) available() int { return len(p.free) }

// frame wraps b so the transport returns it to p when done.
func (p *framePool) frame(b []byte) uartio.Frame {
	return uartio.Frame{Data: b, Release: func() { p.give(b) }}
}
