// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bluele/gcache"
	"github.com/codelithlabs/tools/config"
	"github.com/codelithlabs/tools/qr"
	"github.com/codelithlabs/tools/qr/coding"
)

// qrKey identifies a rendered code.
type qrKey struct {
	text     string
	level    qr.Level
	size     int
	border   int
	fg, bg   config.Color
	standard bool
	opt      qr.Options
}

type rendered struct {
	png      []byte
	version  coding.Version
	mode     coding.Mode
	overflow bool
}

func formBool(r *http.Request, name string, def bool) (bool, error) {
	s := r.FormValue(name)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, badRequest("%s: %q is not a boolean", name, s)
	}
	return b, nil
}

func formInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	s := r.FormValue(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, badRequest("%s: %q out of range [%d, %d]", name, s, lo, hi)
	}
	return n, nil
}

func formColor(r *http.Request, name string, def config.Color) (config.Color, error) {
	s := r.FormValue(name)
	if s == "" {
		return def, nil
	}
	c, err := config.ParseColor(s)
	if err != nil {
		return c, badRequest("%s: %v", name, err)
	}
	return c, nil
}

// parseQR reads the request parameters over the configured defaults.
func (s *Server) parseQR(r *http.Request) (k qrKey, download bool, err error) {
	d := s.cfg.QR
	k = qrKey{
		text:  r.FormValue("text"),
		level: d.Level,
		opt:   d.Options(),
	}
	if v := r.FormValue("level"); v != "" {
		if k.level, err = qr.ParseLevel(v); err != nil {
			return
		}
	}
	if k.size, err = formInt(r, "size", d.Size, 0, qr.MaxSize); err != nil {
		return
	}
	if k.border, err = formInt(r, "border", d.Border, 0, config.MaxBorder); err != nil {
		return
	}
	if k.fg, err = formColor(r, "fg", d.Foreground); err != nil {
		return
	}
	if k.bg, err = formColor(r, "bg", d.Background); err != nil {
		return
	}
	if k.standard, err = formBool(r, "standard", d.Standard); err != nil {
		return
	}
	download, err = formBool(r, "download", false)
	return
}

func (s *Server) render(k qrKey) (*rendered, error) {
	if s.codes != nil {
		if v, err := s.codes.Get(k); err == nil {
			return v.(*rendered), nil
		} else if !errors.Is(err, gcache.KeyNotFoundError) {
			return nil, err
		}
	}
	var (
		c   *qr.Code
		err error
	)
	if k.standard {
		c, err = qr.EncodeStandard(k.text, k.level)
	} else {
		c, err = qr.EncodeOptions(k.text, k.level, k.opt)
	}
	if err != nil {
		return nil, err
	}
	png, err := c.PNG(qr.RenderOptions{
		Size:       k.size,
		Foreground: k.fg.NRGBA,
		Background: k.bg.NRGBA,
		Border:     k.border,
	})
	if err != nil {
		return nil, err
	}
	v := &rendered{png: png, version: c.Version, mode: c.Mode, overflow: c.Overflow}
	if s.codes != nil {
		s.codes.Set(k, v)
	}
	return v, nil
}

func (s *Server) qrcode(w http.ResponseWriter, r *http.Request) {
	k, download, err := s.parseQR(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.render(k)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(len(v.png)))
	h.Set("X-QR-Version", v.version.String())
	h.Set("X-QR-Mode", v.mode.String())
	if v.overflow {
		h.Set("Warning", fmt.Sprintf(`199 - "text exceeds the capacity of version %d; symbol truncated"`,
			coding.MaxVersion))
	}
	if download {
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", qr.Filename))
	}
	w.Write(v.png)
}
