package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	konghcl "github.com/alecthomas/kong-hcl/v2"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/conf"
	"github.com/squareup/shardmerge/errors"
	plog "github.com/squareup/shardmerge/log"
	"github.com/squareup/shardmerge/merge"
	"github.com/squareup/shardmerge/mergerunner"
	"github.com/squareup/shardmerge/metrics"
	"github.com/squareup/shardmerge/metrics/prometheus"
)

type arguments struct {
	Config kong.ConfigFlag `help:"Path to config file" type:"existingfile"`
	Log    plog.Config     `help:"Configuration for the logger" embed:"" prefix:"log-"`
	Merge  conf.Config     `help:"Merge engine configuration" embed:"" prefix:""`
	Cases  []string        `arg:"" help:"Case files to run"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg := arguments{}
	parser, err := kong.New(&cfg, kong.Configuration(konghcl.Loader))
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := parser.Parse(args); err != nil {
		return errors.WithStack(err)
	}
	logCloser, err := cfg.Log.Configure()
	if err != nil {
		return err
	}
	defer func() {
		if err := logCloser.Close(); err != nil {
			log.Warnf("failed to close log file: %v", err)
		}
	}()
	if err := cfg.Merge.Validate(); err != nil {
		return err
	}
	var mf metrics.Factory
	if cfg.Merge.EnableMetrics {
		pf := prometheus.NewFactory(cfg.Merge)
		if err := pf.Start(); err != nil {
			return err
		}
		defer func() {
			if err := pf.Stop(); err != nil {
				log.Warnf("failed to stop metrics server: %v", err)
			}
		}()
		mf = pf
	}
	engine, err := merge.NewEngine(cfg.Merge, mf)
	if err != nil {
		return err
	}
	runner := mergerunner.NewRunner(engine)
	for _, path := range cfg.Cases {
		c, err := mergerunner.LoadCase(path)
		if err != nil {
			return err
		}
		rows, err := runner.Run(ctx, c, out)
		if err != nil {
			return errors.Wrapf(err, "case %s", path)
		}
		log.Infof("ran case %s, %d rows", path, rows)
	}
	return nil
}
