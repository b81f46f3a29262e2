// Package source provides the memo data sources the list pages through.
package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/miosa/osa-memos/client"
	"github.com/miosa/osa-memos/config"
	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/memo"
	"github.com/miosa/osa-memos/store"
	"github.com/miosa/osa-memos/ui/list"
)

// Source is a closable memo source.
type Source interface {
	list.Source[memo.Memo]
	io.Closer
	// Name identifies the source in logs and the status bar.
	Name() string
}

// Slice serves an in-memory memo sequence.
type Slice struct {
	name  string
	memos []memo.Memo
}

// NewSlice returns a source over memos, keeping only those tagged tag
// when tag is non-empty.
func NewSlice(name string, memos []memo.Memo, tag string) *Slice {
	return &Slice{name: name, memos: Filter(memos, tag)}
}

// FromDir loads every memo under dir.
func FromDir(ctx context.Context, dir, tag string, log logrus.FieldLogger) (*Slice, error) {
	memos, err := memo.LoadDir(ctx, dir, log)
	if err != nil {
		return nil, err
	}
	return NewSlice("files:"+dir, memos, tag), nil
}

func (s *Slice) FetchFrom(ctx context.Context, start, size int) ([]memo.Memo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start < 0 || start >= len(s.memos) || size <= 0 {
		return nil, nil
	}
	end := min(start+size, len(s.memos))
	out := make([]memo.Memo, end-start)
	copy(out, s.memos[start:end])
	return out, nil
}

// Len returns the number of memos served.
func (s *Slice) Len() int { return len(s.memos) }

func (s *Slice) Name() string { return s.name }

func (s *Slice) Close() error { return nil }

// Filter returns the memos carrying tag; an empty tag keeps everything.
func Filter(memos []memo.Memo, tag string) []memo.Memo {
	if tag == "" {
		return memos
	}
	var out []memo.Memo
	for _, m := range memos {
		if m.HasTag(tag) {
			out = append(out, m)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

type logged struct {
	Source
	log logrus.FieldLogger
}

// WithLogging logs every fetch at debug level with its duration.
func WithLogging(src Source, log logrus.FieldLogger) Source {
	return &logged{Source: src, log: log.WithField(logger.FieldSource, src.Name())}
}

func (l *logged) FetchFrom(ctx context.Context, start, size int) ([]memo.Memo, error) {
	began := time.Now()
	items, err := l.Source.FetchFrom(ctx, start, size)
	entry := l.log.WithFields(logrus.Fields{
		logger.FieldStart:      start,
		logger.FieldSize:       size,
		logger.FieldCount:      len(items),
		logger.FieldDurationMs: time.Since(began).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("source fetch failed")
	} else {
		entry.Debug("source fetch")
	}
	return items, err
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// Open builds the source named by cfg.Source.Kind.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Source, error) {
	sc := cfg.Source
	var (
		src Source
		err error
	)
	switch sc.Kind {
	case config.SourceFiles, "":
		src, err = FromDir(ctx, sc.Dir, sc.Tag, log)
	case config.SourceRemote:
		src = client.New(sc.URL,
			client.WithTimeout(cfg.Remote.Timeout),
			client.WithCacheTTL(cfg.Remote.CacheTTL),
			client.WithTag(sc.Tag),
		)
	case config.SourceSQLite:
		src, err = store.Open(sc.DB, store.WithTag(sc.Tag), store.WithLogger(log))
	default:
		return nil, fmt.Errorf("source: unknown kind %q", sc.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", sc.Kind, err)
	}
	return WithLogging(src, log), nil
}
