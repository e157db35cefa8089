// Package notify is the sink for user-visible outcome messages. Core code
// reports through a Notifier and never decides how the message is shown.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Kind classifies a message.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Notifier receives user-visible messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
}

// Log writes messages to a zerolog logger: success at info, warning at
// warn, error at error.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Success(msg string) { l.logger.Info().Str("notify", string(KindSuccess)).Msg(msg) }
func (l *Log) Error(msg string)   { l.logger.Error().Str("notify", string(KindError)).Msg(msg) }
func (l *Log) Warning(msg string) { l.logger.Warn().Str("notify", string(KindWarning)).Msg(msg) }

// Message is one recorded notification.
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Recorder keeps every message in order. Tool handlers use it to fold
// notifications into their response.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) add(k Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Kind: k, Text: msg})
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(KindError, msg) }
func (r *Recorder) Warning(msg string) { r.add(KindWarning, msg) }

// Messages returns a copy of what has been recorded.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
func (Nop) Warning(string) {}

// Fanout delivers every message to each notifier in turn.
type Fanout []Notifier

func (f Fanout) Success(msg string) {
	for _, n := range f {
		n.Success(msg)
	}
}

func (f Fanout) Error(msg string) {
	for _, n := range f {
		n.Error(msg)
	}
}

func (f Fanout) Warning(msg string) {
	for _, n := range f {
		n.Warning(msg)
	}
}

var (
	_ Notifier = (*Log)(nil)
	_ Notifier = (*Recorder)(nil)
	_ Notifier = Nop{}
	_ Notifier = Fanout(nil)
)
