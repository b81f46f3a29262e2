// Package store keeps imported memos in sqlite and pages them back in
// import order.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/memo"
)

const insertBatch = 200

// likeEscaper quotes LIKE wildcards with the ESCAPE character used in scope.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Record is the persisted form of a memo. Seq is the position in the most
// recent import; Batch identifies that import.
type Record struct {
	File    string `gorm:"primaryKey;size:255"`
	MemoID  string `gorm:"primaryKey;column:memo_id;size:255"`
	Seq     int    `gorm:"index"`
	Title   string
	Date    time.Time
	Content string `gorm:"type:text"`
	Tags    string // ",a,b," for LIKE matching
	Length  int
	Batch   int64 `gorm:"index"`
}

func (Record) TableName() string { return "memos" }

func fromMemo(m memo.Memo, seq int, batch int64) Record {
	tags := ""
	if len(m.Tags) > 0 {
		tags = "," + strings.ToLower(strings.Join(m.Tags, ",")) + ","
	}
	return Record{
		File:    m.File,
		MemoID:  m.ID,
		Seq:     seq,
		Title:   m.Title,
		Date:    m.Date,
		Content: m.Content,
		Tags:    tags,
		Length:  m.Length,
		Batch:   batch,
	}
}

func (r Record) toMemo() memo.Memo {
	m := memo.Memo{
		ID:      r.MemoID,
		File:    r.File,
		Title:   r.Title,
		Date:    r.Date,
		Content: r.Content,
		Length:  r.Length,
	}
	if t := strings.Trim(r.Tags, ","); t != "" {
		m.Tags = memo.ExtractTags(r.Content)
	}
	return m
}

type Store struct {
	db   *gorm.DB
	path string
	tag  string
	log  logrus.FieldLogger

	lastBatch int64
}

// Option configures a Store.
type Option func(*Store)

// WithTag restricts FetchFrom to memos carrying tag.
func WithTag(tag string) Option {
	return func(s *Store) { s.tag = strings.ToLower(tag) }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens (creating if needed) the sqlite database at path and migrates
// the schema.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, log: logger.Discard()}
	for _, o := range opts {
		o(s)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s.db = db
	return s, nil
}

func (s *Store) Name() string { return "sqlite:" + s.path }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Import upserts memos in order and removes rows a previous import left
// behind. It returns the number of rows written.
func (s *Store) Import(ctx context.Context, memos []memo.Memo) (int, error) {
	batch := max(time.Now().UnixNano(), s.lastBatch+1)
	s.lastBatch = batch
	records := make([]Record, len(memos))
	for i, m := range memos {
		records[i] = fromMemo(m, i, batch)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(records) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "file"}, {Name: "memo_id"}},
				UpdateAll: true,
			}).CreateInBatches(records, insertBatch).Error; err != nil {
				return err
			}
		}
		return tx.Where("batch <> ?", batch).Delete(&Record{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: import: %w", err)
	}
	s.log.WithField(logger.FieldCount, len(records)).Info("memos imported")
	return len(records), nil
}

func (s *Store) scope(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Record{})
	if s.tag != "" {
		q = q.Where(`tags LIKE ? ESCAPE '\'`, "%,"+likeEscaper.Replace(s.tag)+",%")
	}
	return q
}

// FetchFrom returns up to size memos starting at position start.
func (s *Store) FetchFrom(ctx context.Context, start, size int) ([]memo.Memo, error) {
	if start < 0 || size <= 0 {
		return nil, nil
	}
	var records []Record
	if err := s.scope(ctx).Order("seq ASC").Offset(start).Limit(size).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: fetch %d+%d: %w", start, size, err)
	}
	return toMemos(records), nil
}

// Count returns the number of memos FetchFrom can reach.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.scope(ctx).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return int(n), nil
}

// All returns every reachable memo in order.
func (s *Store) All(ctx context.Context) ([]memo.Memo, error) {
	var records []Record
	if err := s.scope(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: all: %w", err)
	}
	return toMemos(records), nil
}

func toMemos(records []Record) []memo.Memo {
	if len(records) == 0 {
		return nil
	}
	out := make([]memo.Memo, len(records))
	for i, r := range records {
		out[i] = r.toMemo()
	}
	return out
}
