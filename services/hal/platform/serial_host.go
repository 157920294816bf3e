//go:build !rp2040

package platform

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/tarm/serial"

	"devicecui-go/errcode"
	"devicecui-go/x/logx"
)

// SerialConfig selects a host serial device. Zero values mean 115200 8N1.
type SerialConfig struct {
	Path     string
	Baud     int
	DataBits byte
	StopBits byte   // 1 or 2
	Parity   string // "none", "even", "odd"
	LockDir  string // defaults to os.TempDir()
}

// OpenSerial opens a tty with an exclusive advisory lock so two consoles
// cannot share one device.
func OpenSerial(cfg SerialConfig) (*StreamPort, error) {
	if cfg.Path == "" {
		return nil, errcode.Wrap(errcode.InvalidParam, "serial open", nil)
	}
	if cfg.Baud <= 0 {
		cfg.Baud = 115200
	}
	dir := cfg.LockDir
	if dir == "" {
		dir = os.TempDir()
	}
	lk := flock.New(filepath.Join(dir, "cui-"+filepath.Base(cfg.Path)+".lock"))
	ok, err := lk.TryLock()
	if err != nil {
		return nil, errcode.Wrap(errcode.Failure, "serial lock", err)
	}
	if !ok {
		return nil, errcode.Wrap(errcode.Busy, "serial lock", nil)
	}

	sc := &serial.Config{
		Name:        cfg.Path,
		Baud:        cfg.Baud,
		ReadTimeout: 100 * time.Millisecond,
		Size:        cfg.DataBits,
		Parity:      parity(cfg.Parity),
		StopBits:    serial.Stop1,
	}
	if cfg.StopBits == 2 {
		sc.StopBits = serial.Stop2
	}
	port, err := serial.OpenPort(sc)
	if err != nil {
		_ = lk.Unlock()
		return nil, errcode.Wrap(errcode.UARTFailure, "serial open", err)
	}
	logx.Infof("uart", "opened %s @ %d", cfg.Path, cfg.Baud)
	return NewStreamPort(cfg.Path, &lockedSerial{port: port, lock: lk}, 512), nil
}

func parity(s string) serial.Parity {
	switch s {
	case "even":
		return serial.ParityEven
	case "odd":
		return serial.ParityOdd
	default:
		return serial.ParityNone
	}
}

// lockedSerial turns read timeouts into retries and drops the lock on
// close.
type lockedSerial struct {
	port   *serial.Port
	lock   *flock.Flock
	closed atomic.Bool
}

func (s *lockedSerial) Read(b []byte) (int, error) {
	for {
		n, err := s.port.Read(b)
		if s.closed.Load() {
			return n, io.EOF
		}
		if n > 0 || (err != nil && err != io.EOF) {
			return n, err
		}
	}
}

func (s *lockedSerial) Write(b []byte) (int, error) { return s.port.Write(b) }

func (s *lockedSerial) Close() error {
	s.closed.Store(true)
	err := s.port.Close()
	_ = s.lock.Unlock()
	return err
}
