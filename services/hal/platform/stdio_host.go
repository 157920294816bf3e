//go:build !rp2040

package platform

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"devicecui-go/errcode"
)

// OpenStdio serves the console on the process's own terminal. stdin is put
// in raw mode so arrow keys and Esc arrive unprocessed; Close restores it.
func OpenStdio() (*StreamPort, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errcode.Wrap(errcode.NotManagingUart, "stdio", nil)
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errcode.Wrap(errcode.UARTFailure, "stdio raw", err)
	}
	rw := &stdio{in: os.Stdin, out: os.Stdout, restore: func() { _ = term.Restore(fd, old) }}
	return NewStreamPort("stdio", rw, 256), nil
}

type stdio struct {
	in      io.Reader
	out     io.Writer
	restore func()
	once    sync.Once
}

func (s *stdio) Read(b []byte) (int, error)  { return s.in.Read(b) }
func (s *stdio) Write(b []byte) (int, error) { return s.out.Write(b) }

func (s *stdio) Close() error {
	s.once.Do(s.restore)
	return nil
}
