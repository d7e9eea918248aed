package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/codelithlabs/tools/compress"
	"github.com/codelithlabs/tools/config"
	"github.com/codelithlabs/tools/internal/server"

	"github.com/pborman/getopt/v2"
	"github.com/sirupsen/logrus"
)

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func main() {
	getopt.Flag(opt(func() {
		getopt.PrintUsage(os.Stdout)
		os.Exit(0)
	}), 'h', "show this help").SetFlag()
	cfgPath := getopt.String('c', "", "configuration file", "file")
	addr := getopt.String('a', "", "listen address [:8080]", "addr")
	getopt.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalln(err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	w := compress.NewWorker(cfg.Compress.Worker(), log)
	if err := w.Start(ctx); err != nil {
		log.Fatalln(err)
	}
	err = server.New(cfg, w, log).ListenAndServe(ctx)
	w.Close()
	if err != nil {
		log.Fatalln(err)
	}
}
