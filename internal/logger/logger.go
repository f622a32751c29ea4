// Package logger builds the shared logrus logger with file rotation.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines the configuration for the logger.
type Options struct {
	Level      string // log level ("debug", "info", "warn", "error")
	FilePath   string // path to the log file; empty disables file output
	MaxSize    int    // maximum size in megabytes before rotation
	MaxBackups int    // maximum number of rotated files to retain
	MaxAge     int    // maximum number of days to retain rotated files
	Compress   bool   // compress rotated files
	Console    bool   // also log to stderr
}

// DefaultOptions returns the default logger options.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		FilePath:   "img-resizer.log",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
		Console:    true,
	}
}

// New returns a logrus.Logger configured according to opts. File output
// is JSON with rotation via lumberjack; console output shares the same
// formatter.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	writers, err := buildWriters(opts)
	if err != nil {
		return nil, err
	}

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}

	return log, nil
}

func buildWriters(opts Options) ([]io.Writer, error) {
	var writers []io.Writer

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return nil, err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		})
	}

	if opts.Console || opts.FilePath == "" {
		writers = append(writers, os.Stderr)
	}

	return writers, nil
}

// WithFile returns a logger entry with the given file context.
func WithFile(log *logrus.Logger, filePath string) *logrus.Entry {
	return log.WithField("file", filePath)
}
