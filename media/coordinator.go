package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Coordinator runs one upload at a time on behalf of an editing session.
type Coordinator struct {
	config   Config
	uploader Uploader
	log      logrus.FieldLogger

	onAsset  func(Task)
	onNotice func(string)
	onUpdate func(Task)

	mu     sync.Mutex
	active *activeTask
	last   Task
	seq    uint64
	wg     sync.WaitGroup

	// deliverMu orders OnUpdate calls by seq.
	deliverMu sync.Mutex
	delivered uint64
}

var errEmptyAssetURL = errors.New("empty asset url")

type activeTask struct {
	Task
	cancel context.CancelFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// OnAsset registers the success callback. It receives the finished task.
func OnAsset(fn func(Task)) Option {
	return func(c *Coordinator) {
		c.onAsset = fn
	}
}

// OnNotice registers the callback for author-facing messages.
func OnNotice(fn func(string)) Option {
	return func(c *Coordinator) {
		c.onNotice = fn
	}
}

// OnUpdate registers a callback for every status or progress change. Calls
// are serialized in the order the changes happened and a snapshot overtaken
// by a newer one is skipped. fn must not call Start or Cancel.
func OnUpdate(fn func(Task)) Option {
	return func(c *Coordinator) {
		c.onUpdate = fn
	}
}

// NewCoordinator creates a Coordinator uploading through u.
func NewCoordinator(cfg Config, u Uploader, opts ...Option) (*Coordinator, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("media: nil uploader")
	}

	c := &Coordinator{
		config:   cfg,
		uploader: u,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.config
}

// Start validates f as kind and begins uploading it in the background. A
// validation failure returns the failed task and the error; no upload is
// attempted. While another task is active Start returns ErrBusy and leaves
// that task alone.
func (c *Coordinator) Start(ctx context.Context, f File, kind Kind) (Task, error) {
	c.mu.Lock()

	if c.active != nil {
		active := c.active.Task
		c.mu.Unlock()
		c.log.WithField("task", active.ID).Warn("upload rejected, another upload is active")
		c.notify(c.config.Notice(ErrBusy, kind))
		return Task{}, ErrBusy
	}

	t := Task{
		ID:        uuid.NewString(),
		File:      f,
		Kind:      kind,
		Status:    StatusValidating,
		StartedAt: time.Now(),
	}
	log := c.log.WithFields(logrus.Fields{
		"task": t.ID,
		"kind": kind,
		"file": f.Name,
		"size": f.Size(),
	})

	if err := c.config.CheckFile(f, kind); err != nil {
		t.Status = StatusFailed
		t.Err = err
		t.FinishedAt = time.Now()
		c.last = t
		seq := c.nextSeq()
		c.mu.Unlock()

		uploadsTotal.WithLabelValues(string(kind), statusRejected).Inc()
		log.WithError(err).Info("upload rejected")
		c.update(t, seq)
		c.notify(c.config.Notice(err, kind))
		return t, err
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	t.Status = StatusUploading
	c.active = &activeTask{Task: t, cancel: cancel}
	c.last = t
	seq := c.nextSeq()
	c.wg.Add(1)
	c.mu.Unlock()

	log.Info("upload started")
	c.update(t, seq)
	go c.run(uploadCtx, t, log)
	return t, nil
}

func (c *Coordinator) run(ctx context.Context, t Task, log logrus.FieldLogger) {
	defer c.wg.Done()

	started := time.Now()
	var (
		asset Asset
		err   error
	)
	if pu, ok := c.uploader.(ProgressUploader); ok {
		asset, err = pu.UploadMediaWithProgress(ctx, t.File, func(sent, total int64) {
			if total <= 0 {
				return
			}
			c.advance(t.ID, int(sent*100/total))
		})
	} else {
		stop := c.tick(t.ID)
		asset, err = c.uploader.UploadMedia(ctx, t.File)
		stop()
	}
	uploadDuration.WithLabelValues(string(t.Kind)).Observe(time.Since(started).Seconds())
	if err == nil && asset.URL == "" {
		err = errEmptyAssetURL
	}

	c.mu.Lock()
	if c.active == nil || c.active.ID != t.ID {
		c.mu.Unlock()
		log.Debug("late upload response discarded")
		return
	}
	done := c.active.Task
	c.active.cancel()
	c.active = nil
	done.FinishedAt = time.Now()
	if err != nil {
		done.Status = StatusFailed
		done.Err = fmt.Errorf("%w: %w", ErrUploadFailed, err)
	} else {
		done.Status = StatusSucceeded
		done.Progress = 100
		done.Asset = &asset
	}
	c.last = done
	seq := c.nextSeq()
	c.mu.Unlock()

	uploadsTotal.WithLabelValues(string(t.Kind), string(done.Status)).Inc()
	c.update(done, seq)
	if err != nil {
		log.WithError(err).Error("upload failed")
		c.notify(c.config.Notice(done.Err, t.Kind))
		return
	}
	log.WithField("url", asset.URL).Info("upload finished")
	if c.onAsset != nil {
		c.onAsset(done)
	}
}

// tick drives synthetic progress toward the configured ceiling.
func (c *Coordinator) tick(id string) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	ticker := time.NewTicker(c.config.ProgressInterval)
	go func() {
		defer close(exited)
		defer ticker.Stop()
		progress := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				progress += c.config.ProgressStep
				if progress > c.config.ProgressCeiling {
					progress = c.config.ProgressCeiling
				}
				c.advance(id, progress)
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// advance raises the progress of the active task. Progress never decreases
// and stays below 100 until the upload is confirmed.
func (c *Coordinator) advance(id string, progress int) {
	if progress > 99 {
		progress = 99
	}
	c.mu.Lock()
	if c.active == nil || c.active.ID != id || progress <= c.active.Progress {
		c.mu.Unlock()
		return
	}
	c.active.Progress = progress
	t := c.active.Task
	c.last = t
	seq := c.nextSeq()
	c.mu.Unlock()

	c.update(t, seq)
}

// Cancel aborts the active upload. The slot is freed immediately and a late
// response from the backend is discarded. It reports whether a task was
// active.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return false
	}
	t := c.active.Task
	c.active.cancel()
	c.active = nil
	t.Status = StatusCancelled
	t.FinishedAt = time.Now()
	c.last = t
	seq := c.nextSeq()
	c.mu.Unlock()

	uploadsTotal.WithLabelValues(string(t.Kind), string(StatusCancelled)).Inc()
	c.log.WithField("task", t.ID).Info("upload cancelled")
	c.update(t, seq)
	return true
}

// Active returns the running task, if any.
func (c *Coordinator) Active() (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Task{}, false
	}
	return c.active.Task, true
}

// Last returns the most recently started or finished task.
func (c *Coordinator) Last() Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Wait blocks until background uploads have returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// UploadAndGetURL validates f by its MIME type and uploads it synchronously,
// without task state. Failures wrap ErrInvalidMediaType, ErrMediaTooLarge or
// ErrUploadFailed.
func (c *Coordinator) UploadAndGetURL(ctx context.Context, f File) (string, error) {
	kind, ok := KindOf(f.MimeType)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaType, f.MimeType)
	}
	if err := c.config.CheckFile(f, kind); err != nil {
		uploadsTotal.WithLabelValues(string(kind), statusRejected).Inc()
		return "", err
	}

	started := time.Now()
	asset, err := c.uploader.UploadMedia(ctx, f)
	uploadDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
	if err != nil {
		uploadsTotal.WithLabelValues(string(kind), string(StatusFailed)).Inc()
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if asset.URL == "" {
		uploadsTotal.WithLabelValues(string(kind), string(StatusFailed)).Inc()
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, errEmptyAssetURL)
	}
	uploadsTotal.WithLabelValues(string(kind), string(StatusSucceeded)).Inc()
	return asset.URL, nil
}

// nextSeq numbers a task snapshot. c.mu must be held.
func (c *Coordinator) nextSeq() uint64 {
	c.seq++
	return c.seq
}

// update delivers snapshots one at a time. A snapshot older than one already
// delivered is dropped, so OnUpdate never sees a task move backwards.
func (c *Coordinator) update(t Task, seq uint64) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if seq <= c.delivered {
		return
	}
	c.delivered = seq
	if c.onUpdate != nil {
		c.onUpdate(t)
	}
}

func (c *Coordinator) notify(msg string) {
	if c.onNotice != nil && msg != "" {
		c.onNotice(msg)
	}
}
