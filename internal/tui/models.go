package tui

import (
	"time"

	"github.com/pders01/blogr/internal/feed"
	"github.com/pders01/blogr/internal/storage"
)

type View int

const (
	ViewFeed View = iota
	ViewDetail
	ViewEditor
	ViewDeleteConfirm
	ViewNotFound
)

func (v View) String() string {
	switch v {
	case ViewFeed:
		return "feed"
	case ViewDetail:
		return "detail"
	case ViewEditor:
		return "editor"
	case ViewDeleteConfirm:
		return "delete-confirm"
	case ViewNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

type postItem struct {
	post *storage.Post
	term string
	wpm  int
}

func (i postItem) Title() string { return renderHighlighted(i.post.Title, i.term) }

func (i postItem) Description() string {
	desc := excerpt(i.post.Body, 80)
	meta := MsgReadingTime(max(1, readingTime(i.post.Body, i.wpm)))
	if i.post.Author != "" {
		meta = i.post.Author + " • " + meta
	}
	return renderMuted(desc) + TimeStyle.Render(" • "+meta)
}

func (i postItem) FilterValue() string { return i.post.Title }

type postsLoadedMsg struct {
	posts     []*storage.Post
	stale     bool
	fetchedAt time.Time
	err       error
}

type postsInvalidatedMsg struct {
	tag string
}

type postRenderedMsg struct {
	id      storage.PostID
	content string
}

type postCreatedMsg struct {
	post *storage.Post
	err  error
}

type postUpdatedMsg struct {
	post *storage.Post
	err  error
}

type postDeletedMsg struct {
	id  storage.PostID
	err error
}

type pageSettleMsg struct {
	ticket feed.Ticket
}

type searchDebounceFireMsg struct {
	seq uint64
}

type statusClearMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
