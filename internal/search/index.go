// Package search is the catalog text index. The service layer talks to the
// Index interface; RedisIndex is the production implementation.
package search

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/BulizzesRG/myownpos/internal/model"
)

// Document is the searchable projection of a product.
type Document struct {
	ID              uint
	Description     string
	Barcode         string
	AlternativeCode string
}

func NewDocument(p *model.Product) Document {
	return Document{
		ID:              p.ID,
		Description:     p.Description,
		Barcode:         p.Barcode,
		AlternativeCode: p.AlternativeCode,
	}
}

// Index returns product ids ranked by relevance, best first. It may return ids
// of products that were deleted since they were indexed; callers filter.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Remove(ctx context.Context, id uint) error
	Search(ctx context.Context, query string) ([]uint, error)
}

const (
	minPrefixLen = 1
	maxTermLen   = 32
)

// Tokenize lowercases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		out = append(out, truncate(f))
	}
	return out
}

// Terms returns the exact tokens of doc and every edge prefix of them.
func Terms(doc Document) (exact, prefixes []string) {
	text := strings.Join([]string{
		strconv.FormatUint(uint64(doc.ID), 10),
		doc.Description,
		doc.Barcode,
		doc.AlternativeCode,
	}, " ")

	seenExact := map[string]struct{}{}
	seenPrefix := map[string]struct{}{}
	for _, tok := range Tokenize(text) {
		if _, ok := seenExact[tok]; !ok {
			seenExact[tok] = struct{}{}
			exact = append(exact, tok)
		}
		runes := []rune(tok)
		for n := min(minPrefixLen, len(runes)); n <= len(runes); n++ {
			p := string(runes[:n])
			if _, ok := seenPrefix[p]; ok {
				continue
			}
			seenPrefix[p] = struct{}{}
			prefixes = append(prefixes, p)
		}
	}
	return exact, prefixes
}

func truncate(tok string) string {
	runes := []rune(tok)
	if len(runes) > maxTermLen {
		return string(runes[:maxTermLen])
	}
	return tok
}
