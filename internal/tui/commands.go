package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/feed"
	"github.com/pders01/blogr/internal/storage"
)

func (a *App) requestContext() (context.Context, context.CancelFunc) {
	timeout := a.config.API.Timeout
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (a *App) loadPosts() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()

		res, err := a.posts.List(ctx)
		if err != nil {
			return postsLoadedMsg{err: wrapErr("loading posts", err)}
		}
		return postsLoadedMsg{posts: res.Posts, stale: res.Stale, fetchedAt: res.FetchedAt, err: res.Err}
	}
}

// waitForInvalidation blocks until the post store reports a stale tag.
func (a *App) waitForInvalidation() tea.Cmd {
	return func() tea.Msg {
		select {
		case tag := <-a.invalidated:
			return postsInvalidatedMsg{tag: tag}
		case <-a.done:
			return nil
		}
	}
}

func (a *App) createPost(post *storage.Post) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()

		saved, err := a.posts.Create(ctx, post)
		return postCreatedMsg{post: saved, err: err}
	}
}

func (a *App) updatePost(post *storage.Post) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()

		saved, err := a.posts.Update(ctx, post)
		return postUpdatedMsg{post: saved, err: err}
	}
}

func (a *App) deletePost(id storage.PostID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()

		return postDeletedMsg{id: id, err: a.posts.Delete(ctx, id)}
	}
}

// renderPost renders the markdown body off the update loop. The renderer is
// resolved by the caller so the command never touches App state.
func (a *App) renderPost(post *storage.Post) tea.Cmd {
	r, rendererErr := a.getRenderer()
	source := postMarkdown(post, a.config.UI.WordsPerMin)
	id := post.ID

	return func() tea.Msg {
		if rendererErr != nil {
			return postRenderedMsg{id: id, content: "Error initializing renderer: " + rendererErr.Error()}
		}
		rendered, err := r.Render(source)
		if err != nil {
			return postRenderedMsg{id: id, content: fmt.Sprintf("# Error\n\nFailed to render post: %s\n\nPress Escape to go back.", err.Error())}
		}
		return postRenderedMsg{id: id, content: rendered}
	}
}

func postMarkdown(post *storage.Post, wpm int) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", post.Title))

	var meta []string
	if post.Author != "" {
		meta = append(meta, post.Author)
	}
	if post.Category != "" {
		meta = append(meta, post.Category)
	}
	if post.CreatedAt != nil && !post.CreatedAt.IsZero() {
		meta = append(meta, post.CreatedAt.Format("Jan 2, 2006"))
	}
	meta = append(meta, MsgReadingTime(max(1, readingTime(post.Body, wpm))))
	content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(meta, " • ")))

	content.WriteString("---\n\n")
	content.WriteString(post.Body)
	return content.String()
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	mode := a.theme.Mode()
	if a.glamourRenderer == nil || a.rendererMode != mode || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(mode.String()),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
		a.rendererMode = mode
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// schedulePage is the feed scheduler: the ticket comes back as a message
// once the settle delay has passed.
func (a *App) schedulePage(ticket feed.Ticket) {
	debuglog.Debugf("tui: page %d scheduled", ticket.Cursor())
	a.pending = append(a.pending, tea.Tick(a.config.Feed.SettleDelay, func(time.Time) tea.Msg {
		return pageSettleMsg{ticket: ticket}
	}))
}

// drainPending returns the commands queued by callbacks during this update.
func (a *App) drainPending() tea.Cmd {
	if len(a.pending) == 0 {
		return nil
	}
	cmds := a.pending
	a.pending = nil
	return tea.Batch(cmds...)
}

func (a *App) scheduleSearch(seq uint64) tea.Cmd {
	return tea.Tick(a.config.Search.Debounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq}
	})
}

// setStatus shows text in the status bar and returns the command that
// clears it after the configured timeout.
func (a *App) setStatus(kind StatusKind, text string) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	if kind == StatusError {
		debuglog.Warnf("tui: %s", text)
	}

	timeout := a.config.UI.StatusTimeout
	if timeout <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(timeout, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) startSpinner(text string) tea.Cmd {
	a.status = text
	a.statusKind = StatusInfo
	a.busy = true
	return a.spinner.Tick
}

func (a *App) stopSpinner() {
	a.busy = false
}
