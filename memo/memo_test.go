package memo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `---
title: "Memos 2023"
date: "2023-04-01 10:30"
categories: [life, code]
---

Preamble that belongs to no memo.

## 2023-04-02 morning

Coffee and #go code.

Second paragraph #Go #life.

## 2023-04-01

` + "```" + `
#not-a-tag
` + "```" + `
Short one.
`

func TestParse(t *testing.T) {
	fm, memos, err := Parse("2023.md", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Memos 2023", fm.Title)
	assert.Equal(t, []string{"life", "code"}, fm.CategoryList())
	require.Len(t, memos, 2)

	m := memos[0]
	assert.Equal(t, "2023-04-02 morning", m.ID)
	assert.Equal(t, "2023.md", m.File)
	assert.Equal(t, "Memos 2023", m.Title)
	assert.Equal(t, "Coffee and #go code.\n\nSecond paragraph #Go #life.", m.Content)
	assert.Equal(t, []string{"go", "life"}, m.Tags, "tags are distinct ignoring case")
	assert.Equal(t, len([]rune(m.Content)), m.Length)
	assert.Equal(t, 2023, m.Date.Year())
	assert.Equal(t, 10, m.Date.Hour())

	assert.Empty(t, memos[1].Tags, "fenced code is not scanned")
	assert.True(t, m.HasTag("GO"))
	assert.False(t, m.HasTag("rust"))
}

func TestParse_NoFrontMatter(t *testing.T) {
	_, _, err := Parse("x.md", []byte("## heading\nbody\n"))
	assert.ErrorIs(t, err, ErrNoFrontMatter)

	_, _, err = Parse("x.md", []byte("---\ntitle: open\n## never closed\n"))
	assert.ErrorIs(t, err, ErrNoFrontMatter)
}

func TestParse_UnquotedDate(t *testing.T) {
	_, memos, err := Parse("d.md", []byte("---\ntitle: t\ndate: 2022-12-31\n---\n## a\nx\n"))
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, 2022, memos[0].Date.Year())
	assert.Equal(t, time.December, memos[0].Date.Month())
}

func TestMarkdown(t *testing.T) {
	m := Memo{ID: "day", Content: "body"}
	assert.Equal(t, "## day\n\nbody", m.Markdown())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2021-01-01 00:00", "2021-01-01 00:00:00", false},
		{"2021-01-01", "2021-01-01 00:00:00", false},
		{"2021-01-01T08:15:00+08:00", "2021-01-01 08:15:00", false},
		{"2021-01-01 noonish", "2021-01-01 23:59:59", false},
		{"soon", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadDate)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04:05"))
		})
	}
}

func TestExtractTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b-c", "中文"}, ExtractTags("#a text (#b-c) #中文 x#no"))
	assert.Nil(t, ExtractTags("# Heading\nplain"))
}

func TestCategoryList(t *testing.T) {
	assert.Nil(t, FrontMatter{}.CategoryList())
	assert.Equal(t, []string{"one"}, FrontMatter{Categories: "one"}.CategoryList())
	assert.Equal(t, []string{"1", "two"}, FrontMatter{Categories: []any{1, "two"}}.CategoryList())
}

// ---------------------------------------------------------------------------
// Directory loading
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2022.md", "---\ntitle: old\ndate: \"2022-01-01\"\n---\n## old-1\nx\n## old-2\ny\n")
	writeFile(t, dir, "2024.md", "---\ntitle: new\ndate: \"2024-01-01\"\n---\n## new-1\nz\n")
	writeFile(t, dir, "2025.md", "---\ntitle: wip\ndraft: true\n---\n## draft-1\nq\n")
	writeFile(t, dir, "2023.md", "no front matter\n## lost\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "9999.md"), 0o755))

	memos, err := LoadDir(context.Background(), dir, nil)
	require.NoError(t, err)

	ids := make([]string, len(memos))
	for i, m := range memos {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"new-1", "old-1", "old-2"}, ids)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestLoadDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "---\ntitle: a\n---\n## a\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadDir(ctx, dir, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFiles_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.md", "c.md", "b.md"} {
		writeFile(t, dir, n, "")
	}
	names, err := Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.md", "b.md", "a.md"}, names)
}
