// Package editor hosts an editing session: it owns the document and the
// selection, runs commands against them and routes media ingestion to the
// upload coordinator.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rgonek/blogpen/command"
	"github.com/rgonek/blogpen/document"
	"github.com/rgonek/blogpen/ingest"
	"github.com/rgonek/blogpen/markup"
	"github.com/rgonek/blogpen/media"
	"github.com/sirupsen/logrus"
)

const (
	noticeUnreadable = "The saved content could not be read. Starting from an empty document."
	noticeReadOnly   = "This document is read-only."
	noticeNoUploads  = "Media uploads are not available."
)

// ErrUploadsDisabled is returned by upload entry points of a session created
// without an uploader.
var ErrUploadsDisabled = errors.New("uploads are disabled")

// ErrReadOnly is returned by upload entry points of a read-only session.
var ErrReadOnly = errors.New("session is read-only")

// Config holds session options.
type Config struct {
	Markup markup.Config `json:"markup"`
	Media  media.Config  `json:"media"`
	// ReadOnly rejects every mutation with a notice.
	ReadOnly bool `json:"readOnly,omitempty"`
}

// Session is one open editing surface. Commands, selection changes and
// upload completions are serialized by the session lock.
type Session struct {
	codec      *markup.Codec
	dispatcher *command.Dispatcher
	uploads    *media.Coordinator
	readOnly   bool
	log        logrus.FieldLogger
	onChange   func(markup string)
	onUpload   func(media.Task)

	mu     sync.Mutex
	doc    document.Document
	sel    command.Selection
	markup string

	noticeMu sync.Mutex
	notices  []string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// OnChange registers a callback receiving the markup after every committed
// mutation. It runs outside the session lock.
func OnChange(fn func(markup string)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// OnUpload registers a callback receiving upload task updates in order. fn
// must not start or cancel uploads.
func OnUpload(fn func(media.Task)) Option {
	return func(s *Session) {
		s.onUpload = fn
	}
}

// New creates a session holding the default document. uploader may be nil,
// in which case media ingestion is disabled.
func New(cfg Config, uploader media.Uploader, opts ...Option) (*Session, error) {
	codec, err := markup.New(cfg.Markup)
	if err != nil {
		return nil, fmt.Errorf("markup config: %w", err)
	}

	s := &Session{
		codec:    codec,
		readOnly: cfg.ReadOnly,
		log:      logrus.StandardLogger(),
		doc:      document.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.markup = markup.Serialize(s.doc)
	s.dispatcher = command.NewDispatcher(
		command.WithReadOnly(cfg.ReadOnly),
		command.WithLogger(s.log),
	)

	if uploader != nil {
		s.uploads, err = media.NewCoordinator(cfg.Media, uploader,
			media.WithLogger(s.log),
			media.OnAsset(s.insertAsset),
			media.OnNotice(s.notify),
			media.OnUpdate(func(t media.Task) {
				if s.onUpload != nil {
					s.onUpload(t)
				}
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("media config: %w", err)
		}
	}
	return s, nil
}

// Open replaces the session document with the parsed markup and puts the
// cursor at the start. Markup that cannot be parsed yields the default
// document, a notice and the parse error.
func (s *Session) Open(src string) ([]markup.Warning, error) {
	res, err := s.codec.Deserialize(src)
	if err != nil {
		s.log.WithError(err).Warn("stored markup rejected, using empty document")
		s.notify(noticeUnreadable)
		res = markup.Result{Document: document.Default()}
	}
	for _, w := range res.Warnings {
		s.log.WithFields(logrus.Fields{"type": w.Type, "tag": w.Tag}).Debug(w.Message)
	}

	s.mu.Lock()
	s.doc = res.Document
	s.sel = command.Cursor(0, 0)
	src = s.commit()
	s.mu.Unlock()

	s.changed(src)
	return res.Warnings, err
}

// Exec looks up a catalog command by name and applies it.
func (s *Session) Exec(name string, params command.Params) (command.Outcome, error) {
	cmd, err := command.Lookup(name, params)
	if err != nil {
		return command.Outcome{}, err
	}
	return s.Apply(cmd), nil
}

// Apply runs cmd at the current selection and commits the result.
func (s *Session) Apply(cmd command.Command) command.Outcome {
	s.mu.Lock()
	out, src := s.apply(cmd)
	s.mu.Unlock()

	if out.Notice != "" {
		s.notify(out.Notice)
	}
	if out.Changed {
		s.changed(src)
	}
	return out
}

// apply must be called with s.mu held.
func (s *Session) apply(cmd command.Command) (command.Outcome, string) {
	out := s.dispatcher.Dispatch(s.doc, s.sel, cmd)
	s.sel = out.Selection
	if !out.Changed {
		return out, s.markup
	}
	s.doc = out.Document
	return out, s.commit()
}

// commit must be called with s.mu held.
func (s *Session) commit() string {
	s.markup = s.codec.Serialize(s.doc)
	return s.markup
}

func (s *Session) changed(src string) {
	if s.onChange != nil {
		s.onChange(src)
	}
}

// Select moves the selection. Positions outside the document are clamped by
// the next command.
func (s *Session) Select(sel command.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = sel
}

// Selection returns the current selection.
func (s *Session) Selection() command.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Document returns the current document.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Markup returns the markup of the last committed document.
func (s *Session) Markup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markup
}

// IsEmpty reports whether the document is the default document.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.IsEmpty(s.doc)
}

// Capabilities returns the toolbar items active at the selection.
func (s *Session) Capabilities() mapset.Set[command.Capability] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return command.Capabilities(s.doc, s.sel)
}

// Notices drains the pending user-facing messages.
func (s *Session) Notices() []string {
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

func (s *Session) notify(msg string) {
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	s.notices = append(s.notices, msg)
}

// UploadFromPicker starts an upload chosen with a toolbar button.
func (s *Session) UploadFromPicker(ctx context.Context, f media.File, kind media.Kind) (media.Task, error) {
	return s.upload(ctx, ingest.FromPicker(f, kind))
}

// UploadFromDrop starts an upload for the first dropped file.
func (s *Session) UploadFromDrop(ctx context.Context, dt ingest.DataTransfer) (media.Task, error) {
	req, err := ingest.FromDrop(dt)
	if err != nil {
		return media.Task{}, err
	}
	return s.upload(ctx, req)
}

// Paste handles a clipboard event. Image items start an upload and Markdown
// items are inserted as blocks. It reports whether the default paste
// behaviour must be suppressed.
func (s *Session) Paste(ctx context.Context, cb ingest.Clipboard) (bool, error) {
	p := ingest.FromPaste(cb)
	switch {
	case p.Request != nil:
		_, err := s.upload(ctx, *p.Request)
		return p.PreventDefault, err
	case p.Markdown != "":
		res, err := s.codec.FromMarkdown(p.Markdown)
		if err != nil {
			return false, fmt.Errorf("paste markdown: %w", err)
		}
		s.Apply(command.InsertBlocks{Blocks: res.Document.Tree().Children})
		return p.PreventDefault, nil
	}
	return p.PreventDefault, nil
}

func (s *Session) upload(ctx context.Context, req ingest.Request) (media.Task, error) {
	if s.readOnly {
		s.notify(noticeReadOnly)
		return media.Task{}, ErrReadOnly
	}
	if s.uploads == nil {
		s.notify(noticeNoUploads)
		return media.Task{}, ErrUploadsDisabled
	}
	return s.uploads.Start(ctx, req.File, req.Kind)
}

// insertAsset places a finished upload at the current cursor.
func (s *Session) insertAsset(t media.Task) {
	if t.Asset == nil {
		return
	}
	s.Apply(command.InsertAsset{URL: t.Asset.URL, MimeType: t.Asset.MimeType})
}

// CancelUpload aborts the active upload. It reports whether one was active.
func (s *Session) CancelUpload() bool {
	if s.uploads == nil {
		return false
	}
	return s.uploads.Cancel()
}

// Uploading returns the active upload task, if any.
func (s *Session) Uploading() (media.Task, bool) {
	if s.uploads == nil {
		return media.Task{}, false
	}
	return s.uploads.Active()
}

// Wait blocks until background uploads have finished and their assets are
// inserted.
func (s *Session) Wait() {
	if s.uploads != nil {
		s.uploads.Wait()
	}
}
