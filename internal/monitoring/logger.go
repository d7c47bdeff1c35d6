// Package monitoring holds the process-wide diagnostic log streams.
//
// Three streams are kept separate so batch runs over many windows stay
// readable: ops for warnings, errors and run lifecycle; diag for per-stage
// diagnostics; trace for per-window telemetry. Each stream is disabled until
// a writer is installed.
package monitoring

import (
	"io"
	"log"
	"os"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   = newLogger(os.Stderr)
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger(w.Ops)
	diagLogger = newLogger(w.Diag)
	traceLogger = newLogger(w.Trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[indicators] ", log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream (actionable warnings, errors, lifecycle events).
func Opsf(format string, args ...interface{}) {
	printf(&opsLogger, format, args...)
}

// Diagf logs to the diag stream (stage progress, masks, statistics).
func Diagf(format string, args ...interface{}) {
	printf(&diagLogger, format, args...)
}

// Tracef logs to the trace stream (per-window telemetry).
func Tracef(format string, args ...interface{}) {
	printf(&traceLogger, format, args...)
}

func printf(target **log.Logger, format string, args ...interface{}) {
	mu.RLock()
	l := *target
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
