// Package page normalizes list pagination.
package page

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Request struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

func (r Request) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.Limit
}

type Info struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	Limit       int   `json:"limit"`
}

func NewInfo(r Request, total int64) Info {
	n := r.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Info{CurrentPage: n.Page, TotalPages: pages, TotalItems: total, Limit: n.Limit}
}

// Slice applies r to an in-memory result set.
func Slice[T any](items []T, r Request) []T {
	n := r.Normalize()
	start := (n.Page - 1) * n.Limit
	if start >= len(items) {
		return []T{}
	}
	end := start + n.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
