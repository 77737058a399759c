package command

import (
	"github.com/rgonek/blogpen/document"
	"github.com/sirupsen/logrus"
)

const noticeReadOnly = "This document is read-only."

// Dispatcher applies commands on behalf of an editing surface. It carries the
// caller's permission to edit; there is no other shared state.
type Dispatcher struct {
	readOnly bool
	log      logrus.FieldLogger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReadOnly rejects every command with a notice.
func WithReadOnly(readOnly bool) Option {
	return func(d *Dispatcher) {
		d.readOnly = readOnly
	}
}

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ReadOnly reports whether the dispatcher rejects commands.
func (d *Dispatcher) ReadOnly() bool {
	return d.readOnly
}

// Dispatch applies cmd to doc at sel.
func (d *Dispatcher) Dispatch(doc document.Document, sel Selection, cmd Command) Outcome {
	if d.readOnly {
		out := unchanged(doc, sel)
		out.Notice = noticeReadOnly
		return out
	}

	out := cmd.Apply(doc, sel)
	d.log.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"changed": out.Changed,
		"block":   out.Selection.Head.Block,
		"offset":  out.Selection.Head.Offset,
	}).Debug("command applied")
	if out.Notice != "" {
		d.log.WithField("command", cmd.Name()).Info(out.Notice)
	}
	return out
}
