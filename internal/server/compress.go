// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/codelithlabs/tools/compress"
)

// multipart overhead allowed beyond the file size limit
const formSlack = 1 << 20

func (s *Server) compress(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Compress.MaxFileBytes
	if r.ContentLength > limit+formSlack {
		s.fail(w, r, compress.ErrTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+formSlack)
	if err := r.ParseMultipartForm(formSlack); err != nil {
		var maxErr *http.MaxBytesError
		if !errors.As(err, &maxErr) {
			err = badRequest("%v", err)
		}
		s.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, fh, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, badRequest("file: %v", err))
		return
	}
	defer f.Close()
	if fh.Size > limit {
		s.fail(w, r, compress.ErrTooLarge)
		return
	}
	file, err := io.ReadAll(f)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	quality := s.cfg.Compress.Quality
	if q := r.FormValue("quality"); q != "" {
		if quality, err = strconv.ParseFloat(q, 64); err != nil {
			s.fail(w, r, badRequest("quality: %q is not a number", q))
			return
		}
	}

	resp, err := s.worker.Do(r.Context(), compress.Request{
		ID:      requestUUID(r.Context()),
		File:    file,
		Quality: quality,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !resp.OK {
		writeJSON(w, status(resp.Err()), resp)
		return
	}
	if r.FormValue("format") == "json" {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(resp.Blob)))
	h.Set("X-Image-Width", strconv.Itoa(resp.Width))
	h.Set("X-Image-Height", strconv.Itoa(resp.Height))
	w.Write(resp.Blob)
}
