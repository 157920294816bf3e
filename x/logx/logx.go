// Package logx writes short tagged diagnostic lines ("[cui] ...").
//
// Output defaults to stderr. Hosts that drive the terminal through stdio
// point it at a file with Configure so diagnostics never reach the wire.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "", log.LstdFlags)
	file   *os.File
	debug  bool
)

// Configure sends output to path (created if needed). An empty path restores
// stderr.
func Configure(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	if strings.TrimSpace(path) == "" {
		logger.SetOutput(os.Stderr)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.SetOutput(os.Stderr)
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.SetOutput(os.Stderr)
		return err
	}
	file = f
	logger.SetOutput(f)
	return nil
}

// SetOutput redirects output; tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger.SetOutput(w)
	mu.Unlock()
}

func SetDebug(on bool) {
	mu.Lock()
	debug = on
	mu.Unlock()
}

// Info logs "[tag] a b c".
func Info(tag string, args ...any) {
	line := fmt.Sprintln(args...)
	output("[" + tag + "] " + strings.TrimSuffix(line, "\n"))
}

// Infof logs a formatted line under tag.
func Infof(tag, format string, args ...any) {
	output("[" + tag + "] " + fmt.Sprintf(format, args...))
}

// Debugf is Infof gated by SetDebug.
func Debugf(tag, format string, args ...any) {
	mu.Lock()
	on := debug
	mu.Unlock()
	if on {
		output("[" + tag + "] " + fmt.Sprintf(format, args...))
	}
}

func output(s string) {
	mu.Lock()
	defer mu.Unlock()
	_ = logger.Output(3, s)
}
