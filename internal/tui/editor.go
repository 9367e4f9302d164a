package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/blogr/internal/storage"
	"github.com/pders01/blogr/internal/validation"
)

const (
	maxBodyChars   = 20000
	maxEditorWidth = 100
)

// postDraft holds the editor values. The form binds to its fields, so it
// outlives every rebuild of the form.
type postDraft struct {
	title string
	body  string
}

type editor struct {
	form     *huh.Form
	draft    *postDraft
	target   *storage.Post
	returnTo View
	err      error
	busy     bool
}

// newEditor opens a form for target, or for a new post when target is nil.
func newEditor(target *storage.Post, returnTo View, width int) *editor {
	e := &editor{draft: &postDraft{}, target: target, returnTo: returnTo}
	if target != nil {
		e.draft.title = target.Title
		e.draft.body = target.Body
	}
	e.rebuild(width)
	return e
}

func (e *editor) creating() bool { return e.target == nil }

// rebuild replaces a completed or aborted form with a fresh one bound to
// the same draft.
func (e *editor) rebuild(width int) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Placeholder("What is it about?").
				CharLimit(300).
				Value(&e.draft.title),
			huh.NewText().
				Key("body").
				Title("Body").
				Placeholder("Markdown is supported").
				Lines(12).
				CharLimit(maxBodyChars).
				Value(&e.draft.body),
		),
	).WithShowHelp(true)

	if width > 0 {
		form = form.WithWidth(min(width-4, maxEditorWidth))
	}
	e.form = form
	e.busy = false
}

// validate checks the draft; on failure the message is kept for inline display.
func (e *editor) validate() (validation.PostInput, bool) {
	in, err := validation.ValidatePost(e.draft.title, e.draft.body)
	e.err = err
	return in, err == nil
}

// post builds the payload for the remote store from validated input.
func (e *editor) post(in validation.PostInput) *storage.Post {
	if e.target == nil {
		return &storage.Post{Title: in.Title, Body: in.Body}
	}
	p := *e.target
	p.Title = in.Title
	p.Body = in.Body
	return &p
}

func (e *editor) heading() string {
	if e.creating() {
		return "› new post"
	}
	return "› edit post"
}

func (e *editor) view(width int) string {
	rows := []string{renderHeader(e.heading(), "", width), ""}
	if e.err != nil {
		rows = append(rows, StatusErrorStyle.Render("✗ "+e.err.Error()), "")
	}
	rows = append(rows, e.form.View())
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
