// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// A Request asks for file to be compressed at Quality, from 0.0 to 1.0.
// A zero ID is replaced with a random one on submission.
type Request struct {
	ID      uuid.UUID `json:"id"`
	File    []byte    `json:"-"`
	Quality float64   `json:"quality"`
}

// A Response answers the Request with the same ID.  Either OK is set
// and Blob holds the compressed image, or Error describes the failure.
type Response struct {
	ID     uuid.UUID `json:"id"`
	OK     bool      `json:"ok"`
	Blob   []byte    `json:"blob,omitempty"`
	Error  string    `json:"error,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`

	err error
}

// Err returns the error behind a failed Response, or nil.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return errors.New(r.Error)
}

func failure(id uuid.UUID, err error) Response {
	return Response{ID: id, Error: err.Error(), err: err}
}

// Config configures a Worker.
type Config struct {
	Workers int    `yaml:"workers"` // goroutines; 1 serialises requests
	Queue   int    `yaml:"queue"`   // requests waiting beyond the running ones
	Limits  Limits `yaml:"limits"`
}

var errClosed = fmt.Errorf("%w: closed", ErrUnavailable)

const (
	idle = iota
	running
	closed
)

type job struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

// A Worker compresses images on background goroutines.
type Worker struct {
	cfg      Config
	log      logrus.FieldLogger
	jobs     chan *job
	compress func(context.Context, []byte, float64, Limits) (*Result, error)

	mu     sync.RWMutex
	state  int
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup
}

// NewWorker returns a Worker.  It accepts requests after Start.
func NewWorker(cfg Config, log logrus.FieldLogger) *Worker {
	cfg.Workers = max(cfg.Workers, 1)
	cfg.Queue = max(cfg.Queue, 0)
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Worker{
		cfg:      cfg,
		log:      log.WithField("component", "compress"),
		jobs:     make(chan *job, cfg.Queue),
		compress: Compress,
	}
}

// Start starts the worker goroutines.  Cancelling ctx closes the
// worker.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case running:
		return errors.New("compress: worker already started")
	case closed:
		return ErrUnavailable
	}
	w.ctx, w.cancel = context.WithCancelCause(ctx)
	w.state = running
	w.wg.Add(w.cfg.Workers)
	for i := 0; i < w.cfg.Workers; i++ {
		go func() {
			defer w.wg.Done()
			for j := range w.jobs {
				w.run(j)
			}
		}()
	}
	context.AfterFunc(ctx, w.Close)
	w.log.WithField("workers", w.cfg.Workers).Debug("worker started")
	return nil
}

// Close stops accepting requests and waits for the worker goroutines
// to exit.  Requests still queued are answered with a failure.
func (w *Worker) Close() {
	// Cancel before locking so that a Submit blocked on a full queue
	// returns and releases its read lock.
	w.mu.RLock()
	cancel := w.cancel
	w.mu.RUnlock()
	if cancel != nil {
		cancel(errClosed)
	}
	w.mu.Lock()
	if w.state == running {
		w.cancel(errClosed)
		close(w.jobs)
		w.log.Debug("worker closing")
	}
	w.state = closed
	w.mu.Unlock()
	w.wg.Wait()
}

// A Ticket is the pending answer to a submitted Request.
type Ticket struct {
	ID    uuid.UUID
	reply <-chan Response
}

// Wait waits for the Response.  If ctx is done first, Wait returns its
// error; the Response is then discarded when it arrives.
func (t *Ticket) Wait(ctx context.Context) (Response, error) {
	select {
	case r := <-t.reply:
		return r, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Submit queues req.  ctx bounds both queueing and processing: a request
// whose context is done before it runs is answered with a failure.
// Submit fails with ErrUnavailable if the worker is not running.
func (w *Worker) Submit(ctx context.Context, req Request) (*Ticket, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.state != running {
		return nil, ErrUnavailable
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	j := &job{ctx: ctx, req: req, reply: make(chan Response, 1)}
	select {
	case w.jobs <- j:
		return &Ticket{ID: req.ID, reply: j.reply}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.ctx.Done():
		return nil, ErrUnavailable
	}
}

// Do submits req and waits for the Response.
func (w *Worker) Do(ctx context.Context, req Request) (Response, error) {
	t, err := w.Submit(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return t.Wait(ctx)
}

// run answers j exactly once.
func (w *Worker) run(j *job) {
	ctx, cancel := context.WithCancelCause(j.ctx)
	stop := context.AfterFunc(w.ctx, func() { cancel(context.Cause(w.ctx)) })
	if w.ctx.Err() != nil {
		cancel(context.Cause(w.ctx))
	}
	defer func() {
		stop()
		cancel(nil)
	}()

	start := time.Now()
	r := w.handle(ctx, j.req)
	log := w.log.WithFields(logrus.Fields{
		"id":      j.req.ID,
		"quality": j.req.Quality,
		"in":      len(j.req.File),
		"elapsed": time.Since(start),
	})
	if r.OK {
		log.WithField("out", len(r.Blob)).Debug("compressed")
	} else {
		log.WithError(r.err).Warn("compression failed")
	}
	j.reply <- r
}

func (w *Worker) handle(ctx context.Context, req Request) (r Response) {
	defer func() {
		if p := recover(); p != nil {
			r = failure(req.ID, fmt.Errorf("compress: internal error: %v", p))
		}
	}()
	if ctx.Err() != nil {
		return failure(req.ID, context.Cause(ctx))
	}
	res, err := w.compress(ctx, req.File, req.Quality, w.cfg.Limits)
	if err != nil {
		if ctx.Err() != nil {
			err = context.Cause(ctx)
		}
		return failure(req.ID, err)
	}
	return Response{
		ID:     req.ID,
		OK:     true,
		Blob:   res.Blob,
		Width:  res.Width,
		Height: res.Height,
	}
}
