package search

import (
	"strings"
	"unicode"

	"github.com/pders01/blogr/internal/storage"
)

// TitleMatcher keeps posts whose title contains the term, ignoring case.
type TitleMatcher struct{}

func NewTitleMatcher() *TitleMatcher {
	return &TitleMatcher{}
}

// Match compares the term as typed; callers decide whether a blank term
// means "no search".
func (TitleMatcher) Match(posts []*storage.Post, term string) []*storage.Post {
	out := make([]*storage.Post, 0, len(posts))
	if term == "" {
		return append(out, posts...)
	}
	needle := []rune(term)
	for _, p := range posts {
		if p != nil && indexFold([]rune(p.Title), needle, 0) >= 0 {
			out = append(out, p)
		}
	}
	return out
}

// Segment is a piece of text that either matched the term or did not.
type Segment struct {
	Text  string
	Match bool
}

// Segments splits text around every case-insensitive occurrence of term.
// Concatenating the Text of all segments yields text again.
func Segments(text, term string) []Segment {
	if text == "" {
		return nil
	}
	if strings.TrimSpace(term) == "" {
		return []Segment{{Text: text}}
	}

	hay := []rune(text)
	needle := []rune(term)

	var out []Segment
	last := 0
	for i := indexFold(hay, needle, 0); i >= 0; i = indexFold(hay, needle, last) {
		if i > last {
			out = append(out, Segment{Text: string(hay[last:i])})
		}
		out = append(out, Segment{Text: string(hay[i : i+len(needle)]), Match: true})
		last = i + len(needle)
	}
	if last < len(hay) {
		out = append(out, Segment{Text: string(hay[last:])})
	}
	return out
}

// indexFold returns the rune index of the first case-insensitive match of
// needle in hay at or after from, or -1.
func indexFold(hay, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(hay); i++ {
		matched := true
		for j, r := range needle {
			if !equalFold(hay[i+j], r) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

func equalFold(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}

// tokenize splits a query into lower-cased words for the full-text matcher.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
