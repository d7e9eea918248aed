// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compress

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, cfg Config) (*Worker, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	w := NewWorker(cfg, log)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Close)
	return w, hook
}

// gate is a compress function that blocks requests at quality 0.1
// until released or cancelled.
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) compress(ctx context.Context, file []byte, q float64, lim Limits) (*Result, error) {
	if q == 0.1 {
		g.started <- struct{}{}
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return Compress(ctx, file, q, lim)
}

func TestWorkerExactlyOnce(t *testing.T) {
	w, hook := newTestWorker(t, Config{Workers: 3, Queue: 4})
	good := encode(t, photo(24, 16, 5), imaging.PNG)
	bad := []byte("not an image")

	const n = 24
	var wg sync.WaitGroup
	resps := make([]Response, n)
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.New()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			file := good
			if i%3 == 0 {
				file = bad
			}
			r, err := w.Do(context.Background(),
				Request{ID: ids[i], File: file, Quality: 0.6})
			assert.NoError(t, err)
			resps[i] = r
		}(i)
	}
	wg.Wait()
	for i, r := range resps {
		assert.Equal(t, ids[i], r.ID)
		if i%3 == 0 {
			assert.False(t, r.OK)
			assert.NotEmpty(t, r.Error)
			assert.True(t, errors.Is(r.Err(), ErrDecode))
			assert.Nil(t, r.Blob)
		} else {
			assert.True(t, r.OK, r.Error)
			assert.NoError(t, r.Err())
			assert.Equal(t, 24, r.Width)
			assert.Equal(t, 16, r.Height)
			assert.NotEmpty(t, r.Blob)
		}
	}
	assert.Zero(t, LiveBitmaps())

	var failed int
	for _, e := range hook.AllEntries() {
		if e.Message == "compression failed" {
			failed++
			assert.Equal(t, logrus.WarnLevel, e.Level)
			assert.Equal(t, "compress", e.Data["component"])
		}
	}
	assert.Equal(t, n/3, failed)
}

func TestWorkerGeneratesID(t *testing.T) {
	w, _ := newTestWorker(t, Config{})
	tk, err := w.Submit(context.Background(), Request{File: []byte("x"), Quality: 0.5})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tk.ID)
	r, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tk.ID, r.ID)
	assert.False(t, r.OK)
}

func TestWorkerUnavailable(t *testing.T) {
	w := NewWorker(Config{}, nil)
	_, err := w.Submit(context.Background(), Request{})
	assert.Equal(t, ErrUnavailable, err)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	w.Close()
	w.Close()
	_, err = w.Submit(context.Background(), Request{})
	assert.Equal(t, ErrUnavailable, err)
	_, err = w.Do(context.Background(), Request{})
	assert.Equal(t, ErrUnavailable, err)
	assert.Equal(t, ErrUnavailable, w.Start(context.Background()))
}

func TestWorkerStartContext(t *testing.T) {
	w := NewWorker(Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()
	require.Eventually(t, func() bool {
		_, err := w.Submit(context.Background(), Request{})
		return errors.Is(err, ErrUnavailable)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWorkerCloseAnswersQueued(t *testing.T) {
	g := newGate()
	w := NewWorker(Config{Workers: 1, Queue: 4}, nil)
	w.compress = g.compress
	require.NoError(t, w.Start(context.Background()))

	file := encode(t, photo(8, 8, 6), imaging.PNG)
	var tickets []*Ticket
	for i := 0; i < 4; i++ {
		tk, err := w.Submit(context.Background(), Request{File: file, Quality: 0.1})
		require.NoError(t, err)
		tickets = append(tickets, tk)
	}
	<-g.started
	w.Close()
	for _, tk := range tickets {
		r, err := tk.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tk.ID, r.ID)
		assert.False(t, r.OK)
		assert.True(t, errors.Is(r.Err(), ErrUnavailable), r.Error)
	}
	assert.Zero(t, LiveBitmaps())
}

func TestWorkerRequestCancelled(t *testing.T) {
	g := newGate()
	w := NewWorker(Config{Workers: 1, Queue: 2}, nil)
	w.compress = g.compress
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	file := encode(t, photo(8, 8, 7), imaging.PNG)
	first, err := w.Submit(context.Background(), Request{File: file, Quality: 0.1})
	require.NoError(t, err)
	<-g.started
	ctx, cancel := context.WithCancel(context.Background())
	second, err := w.Submit(ctx, Request{File: file, Quality: 0.5})
	require.NoError(t, err)
	cancel()
	close(g.release)

	r, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, r.OK, r.Error)
	r, err = second.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, r.OK)
	assert.True(t, errors.Is(r.Err(), context.Canceled), r.Error)
}

func TestWorkerRecoversPanic(t *testing.T) {
	w := NewWorker(Config{}, nil)
	w.compress = func(context.Context, []byte, float64, Limits) (*Result, error) {
		panic("boom")
	}
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()
	r, err := w.Do(context.Background(), Request{Quality: 0.5})
	require.NoError(t, err)
	assert.False(t, r.OK)
	assert.Equal(t, "compress: internal error: boom", r.Error)

	// The worker survives.
	w.compress = Compress
	r, err = w.Do(context.Background(), Request{Quality: 2})
	require.NoError(t, err)
	assert.True(t, errors.Is(r.Err(), ErrQuality))
}

func TestTicketWaitContext(t *testing.T) {
	g := newGate()
	w := NewWorker(Config{}, nil)
	w.compress = g.compress
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()
	tk, err := w.Submit(context.Background(), Request{Quality: 0.1})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tk.Wait(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
	close(g.release)
	r, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, r.OK, "no file")
}

func TestResponseJSON(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	b, err := json.Marshal(Response{ID: id, OK: true, Blob: []byte{1, 2}, Width: 3, Height: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"ok":true,"blob":"AQI=","width":3,"height":4}`, string(b))

	b, err = json.Marshal(failure(id, ErrDecode))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"ok":false,"error":"compress: cannot decode image"}`, string(b))
}

func TestWorkerCloseUnblocksSubmit(t *testing.T) {
	g := newGate()
	w := NewWorker(Config{Workers: 1}, nil)
	w.compress = g.compress
	require.NoError(t, w.Start(context.Background()))

	first, err := w.Submit(context.Background(), Request{Quality: 0.1})
	require.NoError(t, err)
	<-g.started
	done := make(chan error, 1)
	go func() {
		tk, err := w.Submit(context.Background(), Request{Quality: 0.5})
		if err == nil {
			var r Response
			r, err = tk.Wait(context.Background())
			if err == nil {
				err = r.Err()
			}
		}
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	w.Close()
	assert.True(t, errors.Is(<-done, ErrUnavailable))
	r, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, errors.Is(r.Err(), ErrUnavailable), r.Error)
}
