package memo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/miosa/osa-memos/logger"
)

const parseWorkers = 8

type parsed struct {
	fm    FrontMatter
	memos []Memo
	err   error
}

// Files lists the .md files of dir, newest name first.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("memo: read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// LoadDir parses every memo file of dir in parallel and returns the memos
// of all non-draft files, newest file first and in file order within a
// file. Files without front matter are skipped with a warning.
func LoadDir(ctx context.Context, dir string, log logrus.FieldLogger) ([]Memo, error) {
	if log == nil {
		log = logger.Discard()
	}
	names, err := Files(dir)
	if err != nil {
		return nil, err
	}

	results := make([]parsed, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("memo: read %s: %w", name, err)
			}
			fm, memos, err := Parse(name, data)
			results[i] = parsed{fm: fm, memos: memos, err: err}
			if err != nil && !errors.Is(err, ErrNoFrontMatter) {
				return fmt.Errorf("memo: parse %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Memo
	for i, r := range results {
		name := names[i]
		if r.err != nil {
			log.WithField("file", name).Warn("skipping file without front matter")
			continue
		}
		if r.fm.Draft {
			log.WithField("file", name).Debug("skipping draft")
			continue
		}
		if _, err := ParseDate(r.fm.DateString()); err != nil {
			log.WithField("file", name).WithError(err).Warn("bad date, using zero time")
		}
		out = append(out, r.memos...)
	}
	log.WithFields(logrus.Fields{"files": len(names), logger.FieldCount: len(out)}).Info("memos loaded")
	return out, nil
}
