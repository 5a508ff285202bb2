// Package log configures the global logrus logger for the shardmerge commands. Merged rows are written to
// stdout, so log lines never go there.
package log

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/errors"
)

// Config contains the configuration for the global logger.
type Config struct {
	Format string `help:"Format to write log lines in" enum:"text,json" default:"text"`
	Level  string `help:"Lowest log level that will be emitted" enum:"trace,debug,info,warn,error" default:"info"`
	File   string `help:"File to direct logs to. If left blank, or '-', logs will go to stderr" default:"-"`
	Append bool   `help:"Append to the log file instead of truncating it, so consecutive runs share one file"`
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

// Configure the global logger. The returned closer releases the log file, if any, and restores stderr.
func (cfg *Config) Configure() (io.Closer, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = log.ParseLevel(cfg.Level); err != nil {
			return nil, errors.NewInvalidConfigurationError(err.Error())
		}
	}
	var formatter log.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &log.TextFormatter{}
	case "json":
		formatter = &log.JSONFormatter{}
	default:
		return nil, errors.NewInvalidConfigurationError("log format must be either text or json")
	}
	closer := closerFunc(func() error { return nil })
	destination := "stderr"
	out := io.Writer(os.Stderr)
	if cfg.File != "" && cfg.File != "-" {
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if cfg.Append {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(cfg.File, flags, 0644)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		destination = cfg.File
		out = f
		closer = func() error {
			log.SetOutput(os.Stderr)
			return errors.WithStack(f.Close())
		}
	}
	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(formatter)
	log.WithFields(log.Fields{"destination": destination, "level": level.String(), "append": cfg.Append}).
		Debug("logger configured")
	return closer, nil
}
