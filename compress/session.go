// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// A Session sends requests for one control, such as a quality slider,
// where only the answer to the latest request matters.  A new request
// cancels the one in flight, and answers to anything but the latest
// request are reported as ErrSuperseded.  A Session is safe for
// concurrent use.
type Session struct {
	w *Worker

	mu     sync.Mutex
	latest uuid.UUID
	cancel context.CancelFunc
}

// NewSession returns a Session submitting to w.
func NewSession(w *Worker) *Session { return &Session{w: w} }

// Compress compresses file at quality and waits for the answer.
func (s *Session) Compress(ctx context.Context, file []byte, quality float64) (Response, error) {
	id := uuid.New()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.latest, s.cancel = id, cancel
	s.mu.Unlock()

	r, err := s.w.Do(ctx, Request{ID: id, File: file, Quality: quality})
	if !s.isLatest(id) || err == nil && r.ID != id {
		return Response{}, ErrSuperseded
	}
	return r, err
}

// Latest returns the ID of the latest request.
func (s *Session) Latest() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Session) isLatest(id uuid.UUID) bool { return s.Latest() == id }
