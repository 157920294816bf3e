// services/hal/uartio/transport.go
package uartio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"devicecui-go/bus"
	"devicecui-go/errcode"
	"devicecui-go/services/hal"
	"devicecui-go/x/logx"
)

// InputSize is the size of the holding buffer: long enough for an arrow key
// escape sequence plus padding.
const InputSize = 5

// InputReady is published on the input topic whenever the holding buffer
// has been filled. It is retained so a consumer that subscribes late still
// drains input that arrived before it.
type InputReady struct {
	TS time.Time
}

// Frame is one complete write. Release, when set, runs exactly once after
// the transport is done with Data (written, failed or dropped).
type Frame struct {
	Data    []byte
	Release func()
}

func (f Frame) release() {
	if f.Release != nil {
		f.Release()
	}
}

type Config struct {
	Port  hal.UARTPort
	Conn  *bus.Connection // nil disables input publication
	Topic bus.Topic

	WriteRetries int           // polls of the previous write before dropping
	RetrySleep   time.Duration // sleep between polls
	ReadTimeout  time.Duration // bound on one blocking receive
	ReadPause    time.Duration // back-off after a failed read
	DrainTimeout time.Duration // Close waits this long for the last write
}

// Stats counters are cumulative since New.
type Stats struct {
	Writes      uint32
	Drops       uint32
	WriteErrors uint32
	ReadErrors  uint32
	InputDrops  uint32 // reads discarded because the holding buffer was full
}

// Transport drives one UART for the CUI: a writer goroutine with a single
// write in flight and a reader goroutine feeding a small holding buffer.
type Transport struct {
	port  hal.UARTPort
	conn  *bus.Connection
	topic bus.Topic

	retries   int
	sleep     time.Duration
	readTO    time.Duration
	readPause time.Duration
	drainTO   time.Duration

	wmu    sync.Mutex    // serial write lock
	idle   chan struct{} // token present = no write in flight
	wq     chan Frame
	closed atomic.Bool

	errMu   sync.Mutex
	lastErr error // failure of the previous write, reported once

	inMu   sync.Mutex
	in     [InputSize]byte
	inFull bool

	writes, drops, writeErrs, readErrs, inDrops atomic.Uint32

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var DefaultTopic = bus.T("cui", "input")

func New(cfg Config) *Transport {
	t := &Transport{
		port:      cfg.Port,
		conn:      cfg.Conn,
		topic:     cfg.Topic,
		retries:   cfg.WriteRetries,
		sleep:     cfg.RetrySleep,
		readTO:    cfg.ReadTimeout,
		readPause: cfg.ReadPause,
		drainTO:   cfg.DrainTimeout,
		idle:      make(chan struct{}, 1),
		wq:        make(chan Frame, 1),
	}
	if t.topic == nil {
		t.topic = DefaultTopic
	}
	if t.retries <= 0 {
		t.retries = 10
	}
	if t.sleep <= 0 {
		t.sleep = time.Millisecond
	}
	if t.readTO <= 0 {
		t.readTO = 250 * time.Millisecond
	}
	if t.readPause <= 0 {
		t.readPause = 10 * time.Millisecond
	}
	if t.drainTO <= 0 {
		t.drainTO = 100 * time.Millisecond
	}
	t.idle <- struct{}{}
	return t
}

func (t *Transport) Topic() bus.Topic { return t.topic }

// Start launches the writer and reader goroutines.
func (t *Transport) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(2)
	go t.writer(cctx)
	go t.reader(cctx)
}

// Close waits briefly for the in-flight write, then stops both goroutines.
// Later writes fail with UARTFailure.
func (t *Transport) Close() {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.closed.Swap(true) {
		return
	}
	select {
	case <-t.idle:
	case <-time.After(t.drainTO):
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	// Anything still queued was never written.
	select {
	case f := <-t.wq:
		f.release()
	default:
	}
}

// WriteFrame hands f to the writer goroutine. If the previous write has not
// completed, it polls a bounded number of times before dropping f with
// PrevWriteUnfinished.
func (t *Transport) WriteFrame(f Frame) error {
	if t.port == nil || len(f.Data) == 0 {
		f.release()
		return errcode.UARTFailure
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.closed.Load() {
		f.release()
		return errcode.UARTFailure
	}

	if !t.awaitIdle() {
		t.drops.Add(1)
		f.release()
		return errcode.PrevWriteUnfinished
	}

	t.errMu.Lock()
	prev := t.lastErr
	t.lastErr = nil
	t.errMu.Unlock()
	if prev != nil {
		t.idle <- struct{}{}
		t.drops.Add(1)
		f.release()
		return errcode.Wrap(errcode.UARTFailure, "uart write", prev)
	}

	t.wq <- f
	return nil
}

func (t *Transport) awaitIdle() bool {
	select {
	case <-t.idle:
		return true
	default:
	}
	for i := 0; i < t.retries; i++ {
		time.Sleep(t.sleep)
		select {
		case <-t.idle:
			return true
		default:
		}
	}
	return false
}

func (t *Transport) writer(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-t.wq:
			_, err := t.port.Write(f.Data)
			f.release()
			if err != nil {
				t.writeErrs.Add(1)
				t.errMu.Lock()
				t.lastErr = err
				t.errMu.Unlock()
				logx.Info("uart", "write failed:", err)
			} else {
				t.writes.Add(1)
			}
			t.idle <- struct{}{}
		}
	}
}

func (t *Transport) reader(ctx context.Context) {
	defer t.wg.Done()
	buf := make([]byte, InputSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.port.Readable():
		}

		rctx, rcancel := context.WithTimeout(ctx, t.readTO)
		n, err := t.port.RecvSomeContext(rctx, buf)
		rcancel()
		if ctx.Err() != nil {
			return
		}
		if n <= 0 {
			// A wake-up with nothing to read is treated as a failed read:
			// drop it and re-arm after a pause.
			t.readErrs.Add(1)
			logx.Debugf("uart", "read cancelled: n=%d err=%v", n, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.readPause):
			}
			continue
		}

		accepted := false
		t.inMu.Lock()
		if !t.inFull {
			t.in = [InputSize]byte{}
			copy(t.in[:], buf[:n])
			t.inFull = true
			accepted = true
		}
		t.inMu.Unlock()
		clear(buf)

		if !accepted {
			t.inDrops.Add(1)
			continue
		}
		if t.conn != nil {
			t.conn.Publish(bus.NewMessage(t.topic, InputReady{TS: time.Now()}, true))
		}
	}
}

// TakeInput consumes the holding buffer.
func (t *Transport) TakeInput() ([InputSize]byte, bool) {
	t.inMu.Lock()
	defer t.inMu.Unlock()
	if !t.inFull {
		return [InputSize]byte{}, false
	}
	out := t.in
	t.in = [InputSize]byte{}
	t.inFull = false
	return out, true
}

func (t *Transport) Stats() Stats {
	return Stats{
		Writes:      t.writes.Load(),
		Drops:       t.drops.Load(),
		WriteErrors: t.writeErrs.Load(),
		ReadErrors:  t.readErrs.Load(),
		InputDrops:  t.inDrops.Load(),
	}
}
