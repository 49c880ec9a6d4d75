package hostinterface

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MessageCommand carries a chat line back to the host.
const MessageCommand = ":MESSAGE:"

// LineSink receives encoded outbound lines, without the trailing newline.
type LineSink interface {
	WriteLine(line []byte) error
}

// Writer encodes outbound commands and fans them out to the base writer and to any
// attached sinks (websocket clients).
type Writer struct {
	mu    sync.Mutex
	base  io.Writer
	sinks map[LineSink]struct{}
}

// NewWriter creates a writer. base may be nil when only sinks are used.
func NewWriter(base io.Writer) *Writer {
	return &Writer{
		base:  base,
		sinks: make(map[LineSink]struct{}),
	}
}

// Attach adds a sink; the returned func detaches it.
func (w *Writer) Attach(s LineSink) func() {
	w.mu.Lock()
	w.sinks[s] = struct{}{}
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.sinks, s)
		w.mu.Unlock()
	}
}

// Send writes one JSON array line.
func (w *Writer) Send(fields ...string) error {
	line, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("error encoding reply: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.base != nil {
		if _, err := w.base.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("error writing reply: %w", err)
		}
	}
	for s := range w.sinks {
		if err := s.WriteLine(line); err != nil {
			delete(w.sinks, s)
		}
	}
	return nil
}

// Message sends a chat line to the host.
func (w *Writer) Message(text string) error {
	return w.Send(MessageCommand, text)
}

// Drain sends every message as a :MESSAGE: command, stopping at the first error.
func (w *Writer) Drain(messages []string) error {
	for _, m := range messages {
		if err := w.Message(m); err != nil {
			return err
		}
	}
	return nil
}
