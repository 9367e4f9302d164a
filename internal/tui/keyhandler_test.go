package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/blogr/internal/config"
	"github.com/pders01/blogr/internal/posts"
	"github.com/pders01/blogr/internal/theme"
)

func TestKeyHandler_ModifierKey(t *testing.T) {
	app := newTestApp(t, newFakeRemote(0))

	assert.NotNil(t, app.keyHandler)
	assert.Equal(t, "ctrl+", app.keyHandler.modifierKey)
}

func TestKeyHandler_CustomModifier(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Keys.Modifier = "alt"
	app := NewApp(cfg, posts.NewStore(newFakeRemote(2), nil), theme.Load(nil))
	t.Cleanup(func() { _ = app.Close() })
	app.Update(app.loadPosts()())

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n"), Alt: true})
	assert.Equal(t, ViewEditor, app.view)
}

func TestKeyHandler_ClearSearchBinding(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Keys.Bindings.ClearSearch = "k"
	app := NewApp(cfg, posts.NewStore(newFakeRemote(3), nil), theme.Load(nil))
	t.Cleanup(func() { _ = app.Close() })
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	app.Update(app.loadPosts()())

	typeSearch(t, app, "Post 1")
	app.Update(key(tea.KeyEnter))
	require.True(t, app.controller.Searching())

	app.Update(key(tea.KeyCtrlL))
	assert.True(t, app.controller.Searching(), "ctrl+l is not bound any more")

	app.Update(key(tea.KeyCtrlK))
	assert.False(t, app.controller.Searching())
	assert.Empty(t, app.searchInput.Value())
	assert.Len(t, app.postList.Items(), 3)
}

func TestKeyHandler_ViewTransitions(t *testing.T) {
	tests := []struct {
		name         string
		initialView  View
		msg          tea.KeyMsg
		expectedView View
		setupFunc    func(*App)
	}{
		{
			name:         "feed to detail on enter",
			initialView:  ViewFeed,
			msg:          key(tea.KeyEnter),
			expectedView: ViewDetail,
		},
		{
			name:         "feed to editor on ctrl+n",
			initialView:  ViewFeed,
			msg:          key(tea.KeyCtrlN),
			expectedView: ViewEditor,
		},
		{
			name:         "feed to editor on ctrl+e",
			initialView:  ViewFeed,
			msg:          key(tea.KeyCtrlE),
			expectedView: ViewEditor,
		},
		{
			name:         "feed to delete confirm on ctrl+x",
			initialView:  ViewFeed,
			msg:          key(tea.KeyCtrlX),
			expectedView: ViewDeleteConfirm,
		},
		{
			name:         "detail to feed on escape",
			initialView:  ViewDetail,
			msg:          key(tea.KeyEsc),
			expectedView: ViewFeed,
			setupFunc:    func(a *App) { a.detailID = "1" },
		},
		{
			name:         "detail to delete confirm on ctrl+x",
			initialView:  ViewDetail,
			msg:          key(tea.KeyCtrlX),
			expectedView: ViewDeleteConfirm,
			setupFunc:    func(a *App) { a.detailID = "1" },
		},
		{
			name:         "not found to feed on escape",
			initialView:  ViewNotFound,
			msg:          key(tea.KeyEsc),
			expectedView: ViewFeed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := loadApp(t, newFakeRemote(3))
			app.view = tt.initialView
			if tt.setupFunc != nil {
				tt.setupFunc(app)
			}

			updated, _ := app.Update(tt.msg)
			require.IsType(t, &App{}, updated)
			assert.Equal(t, tt.expectedView, updated.(*App).view)
		})
	}
}

func TestKeyHandler_EmptyFeedIgnoresPostActions(t *testing.T) {
	app := loadApp(t, newFakeRemote(0))

	for _, k := range []tea.KeyType{tea.KeyEnter, tea.KeyCtrlE, tea.KeyCtrlX} {
		app.Update(key(k))
		assert.Equal(t, ViewFeed, app.view)
	}
}

func TestKeyHandler_QuitKeys(t *testing.T) {
	app := loadApp(t, newFakeRemote(1))

	_, cmd := app.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	// While typing a search, q is text.
	app.Update(key(tea.KeyCtrlS))
	_, cmd = app.Update(runes("q"))
	assert.Equal(t, "q", app.searchInput.Value())
	if cmd != nil {
		assert.NotEqual(t, tea.Quit(), cmd())
	}
}

func TestKeyHandler_SlashFocusesSearch(t *testing.T) {
	app := loadApp(t, newFakeRemote(1))

	app.Update(runes("/"))
	assert.True(t, app.searchInput.Focused())
	assert.Contains(t, app.View(), "⌕")
}

func TestKeyHandler_HelpPerView(t *testing.T) {
	app := loadApp(t, newFakeRemote(1))
	kh := app.keyHandler

	feedHelp := strings.Join(kh.GetHelpForCurrentView(), " ")
	assert.Contains(t, feedHelp, "ctrl+n: new")
	assert.Contains(t, feedHelp, "ctrl+x: delete")
	assert.Contains(t, feedHelp, "ctrl+t: dark theme")

	app.view = ViewNotFound
	assert.Equal(t, []string{"esc: back to feed"}, kh.GetHelpForCurrentView())

	app.view = ViewDeleteConfirm
	assert.Contains(t, kh.GetHelpForCurrentView(), "enter: confirm")
}
