// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter splits log output by level: trace, debug and info, warn, error and above.
type LevelWriter struct {
	Trace io.Writer
	Info  io.Writer
	Warn  io.Writer
	Error io.Writer
}

// Write implements io.Writer for events without a level.
func (lw *LevelWriter) Write(p []byte) (int, error) {
	return lw.Info.Write(p) //nolint:wrapcheck
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	var w io.Writer

	switch {
	case l == zerolog.Disabled:
		return 0, nil
	case l == zerolog.TraceLevel:
		w = lw.Trace
	case l == zerolog.WarnLevel:
		w = lw.Warn
	case l > zerolog.WarnLevel:
		w = lw.Error
	default:
		w = lw.Info
	}

	return w.Write(p) //nolint:wrapcheck
}

// Init the zerolog logger.
// Depending on the config it enables console output, file output, both or none.
func Init(cfg Log) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("loglevel %s is not supported", cfg.Level))
	}

	if err = requireName("ServiceName", cfg.ServiceName); err != nil {
		return err
	}

	if err = requireName("AppName", cfg.AppName); err != nil {
		return err
	}

	stack := level == zerolog.TraceLevel
	if stack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
	}

	zerolog.SetGlobalLevel(level)
	zerolog.ErrorHandler = writeFailed

	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg.Console))
	}

	if cfg.File.Enabled {
		fw, errFile := newLevelFiles(cfg.File)
		if errFile != nil {
			return errFile
		}

		writers = append(writers, fw)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(NewPrometheusHook(cfg.ServiceName)).
		With().
		Timestamp().
		Str("app", cfg.AppName)

	switch {
	case cfg.ReportCaller && stack:
		ctx = ctx.Stack().Caller()
	case cfg.ReportCaller:
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger()

	return nil
}

// NewRotatingFile returns a lumberjack file in dir, creating dir if needed.
func NewRotatingFile(dir, name string, r Rotation) (io.Writer, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd
			return nil, errors.Wrapf(err, "can't create log directory %s", dir)
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(dir, name),
		MaxSize:    r.MaxSize,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
	}, nil
}

func newLevelFiles(cfg LogFile) (*LevelWriter, error) {
	var (
		lw  LevelWriter
		err error
	)

	targets := []struct {
		w    *io.Writer
		name string
	}{
		{&lw.Trace, cfg.Trace},
		{&lw.Info, cfg.Info},
		{&lw.Warn, cfg.Warn},
		{&lw.Error, cfg.Error},
	}

	for _, t := range targets {
		if *t.w, err = NewRotatingFile(cfg.Path, t.name, cfg.Rotation); err != nil {
			return nil, err
		}
	}

	return &lw, nil
}

// NewConsoleWriter writes info and debug to stdout and everything else to stderr.
func NewConsoleWriter(cfg Console) io.Writer {
	wrap := func(out io.Writer) io.Writer {
		if !cfg.UseConsoleWriter {
			return out
		}

		return zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		Trace: wrap(os.Stderr),
		Info:  wrap(os.Stdout),
		Warn:  wrap(os.Stderr),
		Error: wrap(os.Stderr),
	}
}
