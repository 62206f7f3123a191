// Package jsonlog emits newline-delimited JSON records to an output stream.
// Each record is one compact JSON object per line so an external log
// pipeline can ingest stdout directly.
package jsonlog

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultSource is stamped on every record that does not set its own source.
const DefaultSource = "LaunchDarkly"

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Emitter writes log records as compact JSON lines.
//
// Emit fills in the standard fields (timestamp in epoch milliseconds, source
// tag, plus any common fields registered with SetCommonField) only when the
// payload does not already carry them. Writes are synchronous and unbuffered
// beyond whatever buffering the underlying writer does; there is no retry.
type Emitter struct {
	mu     sync.Mutex
	out    io.Writer
	clock  Clock
	common map[string]any
}

// NewEmitter creates an Emitter writing to out using the system clock.
func NewEmitter(out io.Writer) *Emitter {
	return NewEmitterWithClock(out, SystemClock{})
}

// NewEmitterWithClock creates an Emitter with an explicit clock.
func NewEmitterWithClock(out io.Writer, clock Clock) *Emitter {
	return &Emitter{
		out:    out,
		clock:  clock,
		common: make(map[string]any),
	}
}

// SetCommonField registers a field added to every subsequent record unless
// the record sets the same key itself. Used for run-level correlation fields
// such as the run ID and project tag.
func (e *Emitter) SetCommonField(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.common[key] = value
}

// Emit writes one record as a single line of compact JSON.
//
// The payload is augmented in place: common fields, then "timestamp" (epoch
// milliseconds) and "source", each only if absent. Emit never returns an
// error; a payload that cannot be marshaled is replaced by a minimal record
// describing the failure, so logging can never abort an evaluation.
func (e *Emitter) Emit(payload map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for key, value := range e.common {
		if _, ok := payload[key]; !ok {
			payload[key] = value
		}
	}
	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = e.clock.Now().UnixMilli()
	}
	if _, ok := payload["source"]; !ok {
		payload["source"] = DefaultSource
	}

	line, err := json.Marshal(payload)
	if err != nil {
		line, _ = json.Marshal(map[string]any{
			"timestamp": e.clock.Now().UnixMilli(),
			"source":    DefaultSource,
			"event":     "log_marshal_error",
			"error":     err.Error(),
		})
	}

	fmt.Fprintf(e.out, "%s\n", line)
}
