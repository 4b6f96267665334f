package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
)

const (
	maxLogSizeMB  = 1 // lumberjack rotates in whole megabytes
	maxLogBackups = 50
)

// levelFile only receives events at or above min.
type levelFile struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFile) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFile) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

type closers []io.Closer

func (c closers) Close() error {
	var first error
	for _, cl := range c {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New builds the process logger: debug, main and error files under
// options.log_dir, each rotated independently. The returned closer flushes
// and closes the files.
func New(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	logDir := cfg.Options.LogDir
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return zerolog.Nop(), nil, errors.Wrap(err, "failed to create log directory")
	}

	open := func(name string) *lumberjack.Logger {
		return &lumberjack.Logger{
			Filename:   filepath.Join(logDir, name),
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
		}
	}

	debugFile := open("debug_log.log")
	mainFile := open("main_log.log")
	errorFile := open("error_log.log")

	writers := []io.Writer{
		levelFile{w: debugFile, min: zerolog.DebugLevel},
		levelFile{w: mainFile, min: zerolog.InfoLevel},
		levelFile{w: errorFile, min: zerolog.ErrorLevel},
	}
	if cfg.Options.Verbose {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()

	return log, closers{debugFile, mainFile, errorFile}, nil
}

// NewConsole is used by commands that should not touch the log files.
func NewConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
