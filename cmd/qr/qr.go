package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/codelithlabs/tools/config"
	"github.com/codelithlabs/tools/qr"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"github.com/sirupsen/logrus"
)

var g = struct {
	cfgPath  string // configuration file
	size     int    // png: image pixels; pbm: pixels per module
	border   int    // quiet zone
	fn       string // filename
	format   int    // output file format
	rev      bool   // reverse colours
	bg, fg   colour // colour
	latin1   bool   // Latin-1 byte mode
	standard bool   // conformant encoder
	strict   bool   // fail on overflow
	download bool   // write Filename
}{}

// Default PBM pixels per module.
const pbmScale = 4

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "QR code generator\nUsage: ", cl.Program(), " ",
		cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.  Defaults are read from the configuration file.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	w.Write(b.Bytes())
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 1.0.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2024 Vadim Vygonets`)
	os.Exit(0)
}

type colour struct {
	c   config.Color
	set bool
}

func (c *colour) String() string { return c.c.String() }

func (c *colour) Set(s string, _ getopt.Option) error {
	v, err := config.ParseColor(s)
	if err != nil {
		return err
	}
	c.c, c.set = v, true
	return nil
}

var formats = []string{
	"png", "pngi", "pbm", "pbmi", "utf8", "utf8i", "ascii", "asciii",
}

var (
	utf8Reverse  = strings.NewReplacer("█", " ", " ", "█", "▀", "▄", "▄", "▀")
	asciiReverse = strings.NewReplacer("#", " ", " ", "#")
)

var encoders = [...]func(*qr.Code, io.Writer, *config.QR) error{
	func(c *qr.Code, w io.Writer, q *config.QR) error {
		o := q.Render()
		o.Reverse = g.rev
		return c.EncodePNG(w, o)
	},
	func(c *qr.Code, w io.Writer, q *config.QR) error {
		return c.EncodePBM(w, g.size, q.Border, g.rev)
	},
	func(c *qr.Code, w io.Writer, _ *config.QR) error {
		s := c.String()
		if g.rev {
			s = utf8Reverse.Replace(s)
		}
		_, err := io.WriteString(w, s)
		return err
	},
	func(c *qr.Code, w io.Writer, q *config.QR) error {
		s := c.ASCII(q.Border)
		if g.rev {
			s = asciiReverse.Replace(s)
		}
		_, err := io.WriteString(w, s)
		return err
	},
}

var lev *string

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.Flag(&g.cfgPath, 'c', "configuration file", "file")
	getopt.FlagLong(&g.bg, "background", 'B', `background colour; see -F`,
		"RGB[A]|name")
	getopt.FlagLong(&g.fg, "foreground", 'F', `foreground colour `+
		`as 3, 4, 6 or 8 hex digits or SVG colour name; `+
		`only for types png[i]`, "RGB[A]|name")
	getopt.Flag(&g.latin1, '1',
		"convert byte mode text to Latin-1")
	getopt.Flag(&g.standard, 'S', "encode a standard QR code with "+
		"error correction, up to version 40")
	getopt.Flag(&g.strict, 'X', "fail if the text does not fit version 10 "+
		"instead of truncating it")
	getopt.Flag(&g.border, 'm', `quiet zone modules [4]`, "margin")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output`, "file")
	getopt.Flag(&g.download, 'd', `write to "`+qr.Filename+`"`)
	lev = getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "",
		"error correction level, lowest to highest [m]", "l|m|q|h")
	size := getopt.Unsigned('s', 0,
		&getopt.UnsignedLimit{Base: 0, Bits: 16, Min: 1, Max: qr.MaxSize},
		`type png[i]: image pixels on a side [256]; `+
			`type pbm[i]: pixels per module [4]; `+
			`ignored for types utf8[i] and ascii[i]`, "size")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; types with "i" appended have colours inverted; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	if g.download && fno.Seen() {
		fmt.Fprintln(os.Stderr, "-d and -o are incompatible")
		usage()
	}
	g.size = int(*size)
	if g.download {
		g.fn = qr.Filename
	}
	if *ff == "" {
		if g.fn == "" && isatty.IsTerminal(os.Stdout.Fd()) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i >> 1
			g.rev = i&1 != 0
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
}

// apply overrides configured defaults with the flags given.
func apply(q *config.QR) error {
	if *lev != "" {
		l, err := qr.ParseLevel(*lev)
		if err != nil {
			return err
		}
		q.Level = l
	}
	if g.bg.set {
		q.Background = g.bg.c
	}
	if g.fg.set {
		q.Foreground = g.fg.c
	}
	if getopt.IsSet('m') {
		q.Border = g.border
	}
	if g.format == 0 && g.size != 0 {
		q.Size = g.size
	}
	if g.format == 1 && g.size == 0 {
		g.size = pbmScale
	}
	q.Latin1 = q.Latin1 || g.latin1
	q.Strict = q.Strict || g.strict
	q.Standard = q.Standard || g.standard
	return nil
}

func main() {
	parseFlags()
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		logrus.Fatalln(err)
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalln(err)
	}
	if err := apply(&cfg.QR); err != nil {
		log.Fatalln(err)
	}

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}

	var c *qr.Code
	if cfg.QR.Standard {
		c, err = qr.EncodeStandard(s, cfg.QR.Level)
	} else {
		c, err = qr.EncodeOptions(s, cfg.QR.Level, cfg.QR.Options())
	}
	if err != nil {
		log.Fatalln(err)
	}
	if c.Overflow {
		log.WithFields(logrus.Fields{
			"bytes":   len(s),
			"version": c.Version,
			"level":   c.Level,
		}).Warn("text exceeds the capacity of the largest version; symbol truncated")
	}
	write(c, &cfg.QR, log)
}

func write(c *qr.Code, q *config.QR, log logrus.FieldLogger) {
	open := g.fn != ""
	var w = os.Stdout
	if open {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	err := encoders[g.format](c, w, q)
	if open && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
	if open {
		log.WithFields(logrus.Fields{
			"file":    g.fn,
			"version": c.Version,
			"mode":    c.Mode,
		}).Debug("written")
	}
}
