package client

import "github.com/miosa/osa-memos/memo"

// Info from GET /data/memos/info.json. Pages is the index of the last page,
// so a server with one page reports 0.
type Info struct {
	Pages int `json:"pages"`
	Size  int `json:"size"`
	Count int `json:"count"`
}

// PageCount returns the number of pages, Pages+1 when any memo exists.
func (i Info) PageCount() int {
	if i.Count == 0 {
		return 0
	}
	return i.Pages + 1
}

// NewInfo describes count memos split into pages of size.
func NewInfo(count, size int) Info {
	if size <= 0 {
		size = 1
	}
	pages := 0
	if count > 0 {
		pages = (count - 1) / size
	}
	return Info{Pages: pages, Size: size, Count: count}
}

// Page is the body of GET /data/memos/{n}.json.
type Page []memo.Memo

// HealthResponse from GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
