//go:build !rp2040

package platform

import (
	"context"
	"io"
	"sync"

	"devicecui-go/x/logx"
	"devicecui-go/x/shmring"
)

// StreamPort adapts a blocking io.ReadWriteCloser (a tty, stdin/stdout) to
// hal.UARTPort. A reader goroutine stages bytes in a ring so the transport
// can wait on Readable like it does on the MCU UART.
type StreamPort struct {
	name string
	rw   io.ReadWriteCloser
	rx   *shmring.Ring

	wmu  sync.Mutex
	once sync.Once
	done chan struct{}
	err  error
}

func NewStreamPort(name string, rw io.ReadWriteCloser, ringSize int) *StreamPort {
	if ringSize <= 0 {
		ringSize = 256
	}
	p := &StreamPort{name: name, rw: rw, rx: shmring.New(ringSize), done: make(chan struct{})}
	go p.pump()
	return p
}

func (p *StreamPort) pump() {
	defer close(p.done)
	buf := make([]byte, 64)
	for {
		n, err := p.rw.Read(buf)
		if n > 0 {
			if w := p.rx.WriteFrom(buf[:n]); w < n {
				logx.Debugf("uart", "%s: rx ring full, dropped %d", p.name, n-w)
			}
		}
		if err != nil {
			p.err = err
			if err != io.EOF {
				logx.Infof("uart", "%s: read stopped: %v", p.name, err)
			}
			return
		}
	}
}

func (p *StreamPort) WriteByte(b byte) error {
	_, err := p.Write([]byte{b})
	return err
}

func (p *StreamPort) Write(b []byte) (int, error) {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return p.rw.Write(b)
}

func (p *StreamPort) Buffered() int              { return p.rx.Available() }
func (p *StreamPort) Readable() <-chan struct{}  { return p.rx.Readable() }
func (p *StreamPort) Read(b []byte) (int, error) { return p.rx.ReadInto(b), nil }

// RecvSomeContext waits until at least one byte is staged or ctx ends. After
// the source has gone away it returns the reader's error once the ring is
// empty.
func (p *StreamPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	for {
		if n := p.rx.ReadInto(b); n > 0 {
			return n, nil
		}
		select {
		case <-p.done:
			if n := p.rx.ReadInto(b); n > 0 {
				return n, nil
			}
			return 0, p.err
		default:
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.rx.Readable():
		case <-p.done:
		}
	}
}

// Close closes the underlying stream. The reader goroutine exits on its own
// once the blocked Read returns.
func (p *StreamPort) Close() error {
	var err error
	p.once.Do(func() { err = p.rw.Close() })
	return err
}
