package monitoring

import (
	"fmt"
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Sink receives calibration diagnostics. It is a side channel: nothing in the
// calibration code depends on what a Sink does with a message.
type Sink interface {
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

type componentSink struct {
	component string
}

// Default returns a Sink that forwards to Logf, prefixing each line with
// "[component]" the way the rest of the service logs.
func Default(component string) Sink {
	return componentSink{component: component}
}

func (s componentSink) Infof(format string, v ...interface{}) {
	Logf("["+s.component+"] "+format, v...)
}

func (s componentSink) Warnf(format string, v ...interface{}) {
	Logf("["+s.component+"] WARN: "+format, v...)
}

type nopSink struct{}

func (nopSink) Infof(string, ...interface{}) {}
func (nopSink) Warnf(string, ...interface{}) {}

// Nop returns a Sink that discards everything.
func Nop() Sink { return nopSink{} }

// Level identifies the severity of a recorded entry.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Entry is one message captured by a Recorder.
type Entry struct {
	Level   Level
	Message string
}

// Recorder is a Sink that keeps every message in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Infof(format string, v ...interface{}) {
	r.add(LevelInfo, fmt.Sprintf(format, v...))
}

func (r *Recorder) Warnf(format string, v ...interface{}) {
	r.add(LevelWarn, fmt.Sprintf(format, v...))
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

// Entries returns a copy of the recorded messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of recorded messages at the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
