// Package notify is the user-facing notification surface: success and error
// toasts, delivered fire-and-forget.
package notify

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Notifier shows short messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Writer prints notifications as single lines to w.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Success(msg string) { n.print("✔", msg) }

func (n *Writer) Error(msg string) { n.print("✘", msg) }

func (n *Writer) print(mark, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", mark, msg)
}

// Logger forwards notifications to a *log.Logger.
type Logger struct {
	L *log.Logger
}

func (n Logger) Success(msg string) { n.logger().Printf("success: %s", msg) }

func (n Logger) Error(msg string) { n.logger().Printf("error: %s", msg) }

func (n Logger) logger() *log.Logger {
	if n.L == nil {
		return log.Default()
	}
	return n.L
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

// Kind tells success and error notifications apart in a Recorder.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is one recorded notification.
type Message struct {
	Kind Kind
	Text string
}

// Recorder keeps every notification in order. Useful for tests and for callers
// that render notifications later.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }

func (r *Recorder) Error(msg string) { r.add(KindError, msg) }

func (r *Recorder) add(k Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: k, Text: msg})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
