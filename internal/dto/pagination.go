package dto

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Offset within int on every platform.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// PageRequest is a 1-based page selection. Normalize clamps it into range.
type PageRequest struct {
	Size   int
	Number int
}

func (p PageRequest) Normalize() PageRequest {
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Number <= 0 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	return p
}

func (p PageRequest) Offset() int { return (p.Number - 1) * p.Size }

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func NewPageMeta(p PageRequest, total int64) PageMeta {
	last := int((total + int64(p.Size) - 1) / int64(p.Size))
	if last < 1 {
		last = 1
	}
	return PageMeta{CurrentPage: p.Number, PerPage: p.Size, Total: total, LastPage: last}
}

type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// BuildLinks derives navigation links from the request URL, keeping every
// other query parameter (filter, page size) intact.
func BuildLinks(base *url.URL, meta PageMeta) PageLinks {
	at := func(n int) string {
		u := *base
		q := u.Query()
		q.Del("page")
		q.Set("page[number]", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return u.String()
	}
	links := PageLinks{First: at(1), Last: at(meta.LastPage)}
	if meta.CurrentPage > 1 {
		prev := at(min(meta.CurrentPage-1, meta.LastPage))
		links.Prev = &prev
	}
	if meta.CurrentPage < meta.LastPage {
		next := at(meta.CurrentPage + 1)
		links.Next = &next
	}
	return links
}
