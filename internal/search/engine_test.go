package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/blogr/internal/storage"
)

func samplePosts() []*storage.Post {
	return []*storage.Post{
		{ID: "1", Title: "Hello World", Body: "first post"},
		{ID: "2", Title: "Golang Tips", Body: "using bleve for full text search"},
		{ID: "3", Title: "Another hello", Body: "greetings again"},
		{ID: "4", Title: "Ünïcode Straße", Body: "umlauts"},
	}
}

func ids(posts []*storage.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID.String())
	}
	return out
}

func TestTitleMatcher_CaseInsensitiveSubstring(t *testing.T) {
	m := NewTitleMatcher()

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"lower", "hello", []string{"1", "3"}},
		{"upper", "HELLO", []string{"1", "3"}},
		{"inner substring", "ang", []string{"2"}},
		{"unicode fold", "straSSe", []string{}},
		{"unicode lower", "ünïcode", []string{"4"}},
		{"no match", "zzz", []string{}},
		{"body is ignored", "bleve", []string{}},
		{"spaces are significant", "hello ", []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(m.Match(samplePosts(), tt.term)))
		})
	}
}

func TestTitleMatcher_KeepsCollectionOrder(t *testing.T) {
	posts := samplePosts()
	got := NewTitleMatcher().Match(posts, "o")
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestTitleMatcher_EmptyTermReturnsAll(t *testing.T) {
	got := NewTitleMatcher().Match(samplePosts(), "")
	assert.Len(t, got, 4)
}

func TestTitleMatcher_NilCollection(t *testing.T) {
	got := NewTitleMatcher().Match(nil, "x")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want []Segment
	}{
		{
			name: "single match keeps original case",
			text: "Hello World",
			term: "world",
			want: []Segment{{Text: "Hello "}, {Text: "World", Match: true}},
		},
		{
			name: "repeated matches",
			text: "abcABCabc",
			term: "abc",
			want: []Segment{{Text: "abc", Match: true}, {Text: "ABC", Match: true}, {Text: "abc", Match: true}},
		},
		{
			name: "no match",
			text: "Hello",
			term: "xyz",
			want: []Segment{{Text: "Hello"}},
		},
		{
			name: "blank term",
			text: "Hello",
			term: "  ",
			want: []Segment{{Text: "Hello"}},
		},
		{
			name: "multibyte runes",
			text: "Grüße aus Köln",
			term: "KÖLN",
			want: []Segment{{Text: "Grüße aus "}, {Text: "Köln", Match: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.text, tt.term))
		})
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	var b strings.Builder
	for _, s := range Segments(text, "the") {
		b.WriteString(s.Text)
	}
	assert.Equal(t, text, b.String())
}

func TestSegmentsEmptyText(t *testing.T) {
	assert.Nil(t, Segments("", "x"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, tokenize("Hello, World! 42"))
	assert.Empty(t, tokenize("  ...  "))
}
