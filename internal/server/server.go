// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server serves the QR code generator and the image compressor
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/bluele/gcache"
	"github.com/codelithlabs/tools/compress"
	"github.com/codelithlabs/tools/config"
	"github.com/codelithlabs/tools/qr"
	"github.com/codelithlabs/tools/qr/coding"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// A Server handles /health, /api/qrcode and /api/compress.
type Server struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	worker *compress.Worker
	codes  gcache.Cache // rendered PNGs by qrKey; nil if disabled
	router *mux.Router
}

// New returns a Server.  The worker must be started by the caller.
func New(cfg *config.Config, w *compress.Worker, log logrus.FieldLogger) *Server {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Server{
		cfg:    cfg,
		log:    log.WithField("component", "server"),
		worker: w,
	}
	if n := cfg.Server.CacheSize; n > 0 {
		s.codes = gcache.New(n).ARC().Build()
	}
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/qrcode", s.qrcode).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/compress", s.compress).Methods(http.MethodPost)
	s.router = r
	return s
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.requestID(s.accessLog(securityHeaders(s.router)))
}

// ListenAndServe listens on the configured address and serves until
// ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
// within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.WithField("addr", ln.Addr().String()).Info("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errBadRequest}, a...)...)
}

// status maps an error to an HTTP status code.
func status(err error) int {
	var (
		capErr *qr.CapacityError
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &capErr), errors.As(err, &maxErr),
		errors.Is(err, qr.ErrTooLong), errors.Is(err, compress.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, compress.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, compress.ErrSurface):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest), errors.Is(err, config.ErrConfig),
		errors.Is(err, coding.ErrLevel), errors.Is(err, qr.ErrEmpty),
		errors.Is(err, qr.ErrArgs), errors.Is(err, compress.ErrDecode),
		errors.Is(err, compress.ErrQuality):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// fail writes err as a JSON failure with the matching status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	log := s.log.WithError(err).WithField("request_id", RequestID(r.Context()))
	if code >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
