// Package dedup decides whether an influencer identity collides with ones
// already accepted. A name or handle matching any accepted name or handle
// is a collision; false rejections are preferred over duplicate records.
package dedup

import (
	"strings"
	"unicode"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

// Normalize lowercases s, trims it and drops everything that is not a letter
// or a digit.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keys returns the non-empty normalized name and handle of id. A value with
// no letters or digits is keyed by its lowercased trimmed form instead.
func keys(id domain.Identity) []string {
	out := make([]string, 0, 2)
	for _, v := range []string{id.Name, id.Handle} {
		k := Normalize(v)
		if k == "" {
			k = strings.ToLower(strings.TrimSpace(v))
		}
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// IsDuplicate reports whether candidate collides with any accepted identity.
func IsDuplicate(candidate domain.Identity, accepted []domain.Identity) bool {
	candidateKeys := keys(candidate)
	if len(candidateKeys) == 0 {
		return false
	}
	for _, a := range accepted {
		for _, ak := range keys(a) {
			for _, ck := range candidateKeys {
				if ak == ck {
					return true
				}
			}
		}
	}
	return false
}

// Index is an accepted set with constant-time lookups. It is not safe for
// concurrent use.
type Index struct {
	names map[string][]string
	size  int
}

func NewIndex(ids ...domain.Identity) *Index {
	ix := &Index{names: make(map[string][]string)}
	for _, id := range ids {
		ix.Add(id)
	}
	return ix
}

func (ix *Index) Add(id domain.Identity) {
	for _, k := range keys(id) {
		ix.names[k] = append(ix.names[k], id.Name)
	}
	ix.size++
}

// Matches returns the names of accepted identities candidate collides with.
func (ix *Index) Matches(candidate domain.Identity) []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range keys(candidate) {
		for _, name := range ix.names[k] {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func (ix *Index) Contains(candidate domain.Identity) bool {
	for _, k := range keys(candidate) {
		if len(ix.names[k]) > 0 {
			return true
		}
	}
	return false
}

func (ix *Index) Len() int {
	return ix.size
}
