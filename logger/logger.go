// Package logger builds the process logger: logrus with a text or JSON
// formatter, optionally writing to a size-rotated file.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text

	// File enables rotated file output when non-empty.
	File       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool

	// Stderr mirrors output to stderr. The browser owns the terminal and
	// leaves this off.
	Stderr bool

	// Output overrides every other destination. Used by tests.
	Output io.Writer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "text",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// Logger wraps a logrus entry and owns the rotated file, if any.
type Logger struct {
	*logrus.Entry
	closer io.Closer
}

// New creates a Logger from cfg. With no file, no stderr and no explicit
// output everything is discarded.
func New(cfg Config) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportCaller(true)

	if strings.ToLower(cfg.Format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  timestampFormat,
			DisableColors:    true,
			CallerPrettyfier: callerPrettyfier,
		})
	}

	l := &Logger{}
	switch {
	case cfg.Output != nil:
		log.SetOutput(cfg.Output)
	default:
		var writers []io.Writer
		if cfg.Stderr {
			writers = append(writers, os.Stderr)
		}
		if cfg.File != "" {
			_ = os.MkdirAll(filepath.Dir(cfg.File), 0o755)
			fw := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
			writers = append(writers, fw)
			l.closer = fw
		}
		if len(writers) == 0 {
			log.SetOutput(io.Discard)
		} else {
			log.SetOutput(io.MultiWriter(writers...))
		}
	}

	l.Entry = logrus.NewEntry(log).WithField("service", "memos")
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Output: io.Discard})
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) logrus.FieldLogger {
	return l.Entry.WithField(FieldComponent, name)
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields Fields) *logrus.Entry {
	return l.Entry.WithFields(logrus.Fields(fields))
}

// Close flushes and closes the log file, if one is open.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// callerPrettyfier trims the caller down to package.func and file:line.
func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	fn := frame.Function
	if idx := strings.LastIndex(fn, "/"); idx != -1 {
		fn = fn[idx+1:]
	}
	return fn, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}
