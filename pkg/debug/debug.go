// Package debug provides conditional debug logging for ct.
//
// Debug output is switched on with the CT_DEBUG environment variable:
//
//	CT_DEBUG=1 ct -workspace ./ws.yaml
//
// Messages go to stderr with a timestamp. While disabled every function
// returns immediately.
//
//	defer debug.LogEnterExit("loader.LoadFile")()
//	debug.Log("loaded %d nodes from %s", n, path)
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[CT_DEBUG] "

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("CT_DEBUG") != "" {
		enabled = true
		logger = newLogger(os.Stderr)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

// active returns the logger when logging is on, nil otherwise.
func active() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return logger
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	return active() != nil
}

// SetEnabled turns logging on or off at runtime.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects debug output to w. The TUI uses it to move logs off
// the terminal it is drawing on.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Log writes a printf-style message.
func Log(format string, args ...any) {
	if l := active(); l != nil {
		l.Printf(format, args...)
	}
}

// LogIf writes a message only when cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if l := active(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}

// LogEnterExit logs entry to name and, when the returned function runs, the
// exit with elapsed time.
//
//	defer debug.LogEnterExit("tree.New")()
func LogEnterExit(name string) func() {
	l := active()
	if l == nil {
		return func() {}
	}
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	if l := active(); l != nil {
		l.Printf("%s: %T = %+v", name, v, v)
	}
}

// Section logs a header line.
func Section(name string) {
	if l := active(); l != nil {
		l.Printf("=== %s ===", name)
	}
}
