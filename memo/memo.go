// Package memo parses memo files. A memo file is markdown with YAML front
// matter; every "## " heading opens a new memo whose id is the heading text.
package memo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// ErrNoFrontMatter is returned for files that do not open with a "---"
// front matter block.
var ErrNoFrontMatter = errors.New("memo: missing front matter")

// ErrBadDate is returned when no known layout matches a date string.
var ErrBadDate = errors.New("memo: unparseable date")

const headingPrefix = "## "

// Memo is one entry of a memo file.
type Memo struct {
	ID      string    `json:"id"`
	File    string    `json:"file"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Content string    `json:"content"`
	Tags    []string  `json:"tags,omitempty"`
	Length  int       `json:"length"`
}

// Markdown returns the memo as a markdown document, heading included.
func (m Memo) Markdown() string {
	return headingPrefix + m.ID + "\n\n" + m.Content
}

// HasTag reports whether the memo carries tag, ignoring case.
func (m Memo) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// FrontMatter is the YAML header of a memo file.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Date        any    `yaml:"date"`
	Description string `yaml:"description"`
	Categories  any    `yaml:"categories"`
	Draft       bool   `yaml:"draft"`
}

// CategoryList normalizes the categories field, which may be a single
// string or a list.
func (f FrontMatter) CategoryList() []string {
	switch c := f.Categories.(type) {
	case nil:
		return nil
	case string:
		if c == "" {
			return nil
		}
		return []string{c}
	case []any:
		out := make([]string, 0, len(c))
		for _, v := range c {
			out = append(out, fmt.Sprint(v))
		}
		return out
	default:
		return []string{fmt.Sprint(c)}
	}
}

// DateString returns the date field as text. YAML may decode an unquoted
// date as a timestamp.
func (f FrontMatter) DateString() string {
	switch d := f.Date.(type) {
	case nil:
		return ""
	case string:
		return d
	case time.Time:
		return d.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(d)
	}
}

// SplitFrontMatter separates the YAML header from the markdown body.
func SplitFrontMatter(data []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, []byte("---")) {
		return fm, nil, ErrNoFrontMatter
	}
	rest := data[3:]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || strings.TrimSpace(string(rest[:nl])) != "" {
		return fm, nil, ErrNoFrontMatter
	}
	rest = rest[nl+1:]

	end := -1
	var body []byte
	for off := 0; off <= len(rest); {
		line := rest[off:]
		next := bytes.IndexByte(line, '\n')
		if next >= 0 {
			line = line[:next]
		}
		if strings.TrimRight(string(line), "\r ") == "---" {
			end = off
			if next >= 0 {
				body = rest[off+next+1:]
			}
			break
		}
		if next < 0 {
			break
		}
		off += next + 1
	}
	if end < 0 {
		return fm, nil, ErrNoFrontMatter
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, nil, fmt.Errorf("memo: front matter: %w", err)
	}
	return fm, body, nil
}

// Parse splits a memo file into its memos. Text before the first heading
// is ignored.
func Parse(file string, data []byte) (FrontMatter, []Memo, error) {
	fm, body, err := SplitFrontMatter(data)
	if err != nil {
		return fm, nil, err
	}
	date, _ := ParseDate(fm.DateString())

	var (
		memos   []Memo
		current *Memo
		content strings.Builder
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimRight(content.String(), "\n ")
		current.Tags = ExtractTags(current.Content)
		current.Length = utf8.RuneCountInString(current.Content)
		memos = append(memos, *current)
		content.Reset()
	}

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, headingPrefix) {
			flush()
			current = &Memo{
				ID:    strings.TrimSpace(strings.TrimPrefix(line, headingPrefix)),
				File:  file,
				Title: fm.Title,
				Date:  date,
			}
			continue
		}
		if current == nil {
			continue
		}
		if content.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		content.WriteString(line)
		content.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return fm, nil, fmt.Errorf("memo: scan %s: %w", file, err)
	}
	flush()
	return fm, memos, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
}

// ParseDate accepts the usual front matter layouts. When none match, the
// first ten characters are retried as a day with 23:59:59 appended.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if len(s) >= 10 {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", s[:10]+" 23:59:59", time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

var tagPattern = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_/-]+)`)

// ExtractTags returns the distinct inline #tags of content in order of
// first appearance. Fenced code blocks are skipped.
func ExtractTags(content string) []string {
	var (
		tags  []string
		seen  = map[string]bool{}
		fence bool
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fence = !fence
			continue
		}
		if fence {
			continue
		}
		for _, m := range tagPattern.FindAllStringSubmatch(line, -1) {
			tag := m[1]
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
