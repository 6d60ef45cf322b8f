// Package monitoring holds the simulation's logging streams.
package monitoring

import (
	"io"
	"log"
	"sync"
)

// Stream selects one of the log streams.
type Stream int

const (
	// Ops carries race resets, stored-track loads and failed spawns.
	Ops Stream = iota
	// Diag carries generation retries, spawn placement and lap results.
	Diag
	// Trace carries per-tick telemetry such as leader changes.
	Trace

	streamCount
)

var streamTags = [streamCount]string{"[circuit] ", "[circuit:diag] ", "[circuit:trace] "}

// LogWriters holds the io.Writers for each logging stream. A nil writer
// mutes its stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu      sync.RWMutex
	loggers [streamCount]*log.Logger
)

// SetLogWriters configures all three streams at once.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	for s, out := range [streamCount]io.Writer{w.Ops, w.Diag, w.Trace} {
		if out == nil {
			loggers[s] = nil
			continue
		}
		loggers[s] = log.New(out, streamTags[s], log.LstdFlags|log.Lmicroseconds)
	}
}

func logger(s Stream) *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return loggers[s]
}

// Enabled reports whether s has a writer. Callers use it to skip work that
// only feeds that stream.
func Enabled(s Stream) bool { return logger(s) != nil }

// Logf writes to stream s if it is enabled.
func Logf(s Stream, format string, args ...interface{}) {
	if l := logger(s); l != nil {
		l.Printf(format, args...)
	}
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) { Logf(Ops, format, args...) }

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) { Logf(Diag, format, args...) }

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) { Logf(Trace, format, args...) }
