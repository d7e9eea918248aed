package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/codelithlabs/tools/compress"
	"github.com/codelithlabs/tools/config"

	"github.com/pborman/getopt/v2"
	"github.com/sirupsen/logrus"
)

var g = struct {
	cfgPath string  // configuration file
	out     string  // output file
	quality float64 // 0.0 to 1.0
}{}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "Image compressor\nUsage: ", cl.Program(), " ",
		cl.UsageLine(), ` file
Re-encodes an image as JPEG with the same dimensions.  Input may be
PNG, JPEG, GIF, BMP, TIFF or WebP.

`)
	cl.PrintOptions(w)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func parseFlags() string {
	getopt.SetUsage(usage)
	getopt.Flag(opt(func() { printUsage(os.Stdout); os.Exit(0) }),
		'h', "show this help").SetFlag()
	getopt.Flag(&g.cfgPath, 'c', "configuration file", "file")
	getopt.Flag(&g.out, 'o', `output file [name-compressed.jpg]`, "file")
	getopt.Flag(&g.quality, 'q', "quality from 0.0 to 1.0 [0.8]", "quality")
	getopt.Parse()
	if getopt.NArgs() != 1 {
		usage()
	}
	return getopt.Arg(0)
}

// outputName returns name with its extension replaced by
// "-compressed.jpg".
func outputName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "-compressed.jpg"
}

// formatSize formats n bytes for people.
func formatSize(n int) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
}

func main() {
	in := parseFlags()
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		logrus.Fatalln(err)
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalln(err)
	}
	quality := cfg.Compress.Quality
	if getopt.IsSet('q') {
		quality = g.quality
	}
	out := g.out
	if out == "" {
		out = outputName(in)
	}

	file, err := os.ReadFile(in)
	if err != nil {
		log.Fatalln(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	w := compress.NewWorker(cfg.Compress.Worker(), log)
	if err := w.Start(ctx); err != nil {
		log.Fatalln(err)
	}
	resp, err := w.Do(ctx, compress.Request{File: file, Quality: quality})
	w.Close()
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		log.Fatalln(err)
	}
	if err := os.WriteFile(out, resp.Blob, 0666); err != nil {
		log.Fatalln(err)
	}
	saved := 100 * (1 - float64(len(resp.Blob))/float64(len(file)))
	fmt.Printf("%s: %dx%d, %s -> %s (%.1f%% saved)\n", out,
		resp.Width, resp.Height, formatSize(len(file)),
		formatSize(len(resp.Blob)), saved)
}
