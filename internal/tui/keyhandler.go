package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/blogr/internal/config"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	bindings    config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, bindings: cfg.Keys.Bindings, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewFeed:
		return kh.app.searchInput.Focused()
	case ViewEditor:
		return kh.app.editor != nil
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return kh.app, tea.Quit
	case kh.bindings.Back:
		return kh.navigateBack()
	}

	if kh.app.view == ViewEditor {
		return kh.app, kh.app.updateEditor(msg)
	}

	switch key {
	case "enter", "tab", "down":
		// Keep the term and hand focus back to the list.
		kh.app.searchInput.Blur()
		kh.app.layout()
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput feeds the search box and schedules a debounce tick
// whenever the raw term changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := kh.app.searchInput.Value()
	newSearchInput, cmd := kh.app.searchInput.Update(msg)
	kh.app.searchInput = newSearchInput

	value := kh.app.searchInput.Value()
	if value == prev {
		return kh.app, cmd
	}
	seq, changed := kh.app.controller.Input(value)
	if !changed {
		return kh.app, cmd
	}
	return kh.app, tea.Batch(cmd, kh.app.scheduleSearch(seq))
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.bindings.Quit:
		return kh.app, tea.Quit, true
	case kh.bindings.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.modifierKey + kh.bindings.ToggleTheme:
		return kh.app, kh.app.toggleTheme(), true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedCustomKeys(key)
	case ViewDetail:
		return kh.handleDetailCustomKeys(key)
	case ViewDeleteConfirm:
		return kh.handleDeleteConfirmKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.modifierKey + kh.bindings.Search, "/":
		kh.app.searchInput.Focus()
		kh.app.layout()
		return kh.app, textinput.Blink, true
	case kh.modifierKey + kh.bindings.ClearSearch:
		return kh.app, kh.app.clearSearch(), true
	case kh.modifierKey + kh.bindings.NewPost:
		return kh.app, kh.app.openEditor(nil, ViewFeed), true
	case kh.modifierKey + kh.bindings.EditPost:
		if p := kh.app.selectedPost(); p != nil {
			return kh.app, kh.app.openEditor(p, ViewFeed), true
		}
		return kh.app, nil, true
	case kh.modifierKey + kh.bindings.DeletePost:
		if p := kh.app.selectedPost(); p != nil {
			kh.app.confirmDelete(p, ViewFeed)
		}
		return kh.app, nil, true
	case kh.modifierKey + kh.bindings.Refresh:
		return kh.app, kh.app.refresh(), true
	case "enter":
		if p := kh.app.selectedPost(); p != nil {
			return kh.app, kh.app.openDetail(p.ID), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDetailCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	post, ok := kh.app.currentPost()
	if !ok {
		return kh.app, nil, false
	}
	switch key {
	case kh.modifierKey + kh.bindings.EditPost:
		return kh.app, kh.app.openEditor(post, ViewDetail), true
	case kh.modifierKey + kh.bindings.DeletePost:
		kh.app.confirmDelete(post, ViewDetail)
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "enter", "y":
		return kh.app, kh.app.submitDelete(), true
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}
	return kh.app, nil, true
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewFeed:
		kh.app.postList, cmd = kh.app.postList.Update(msg)
		// Reaching the last row reveals the next page.
		kh.app.sentinel.check(kh.app.postList)
		return kh.app, tea.Batch(cmd, kh.app.drainPending())

	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewEditor:
		kh.app.closeEditor()
		return kh.app, nil

	case ViewDeleteConfirm:
		if kh.app.mutating {
			return kh.app, nil
		}
		kh.app.view = kh.app.deleteReturn
		kh.app.deleteTarget = nil
		return kh.app, nil

	case ViewDetail, ViewNotFound:
		kh.app.view = ViewFeed
		kh.app.detailID = ""
		return kh.app, nil

	case ViewFeed:
		if kh.app.searchBarVisible() {
			cmd := kh.app.clearSearch()
			kh.app.layout()
			return kh.app, cmd
		}
		return kh.app, tea.Quit

	default:
		return kh.app, tea.Quit
	}
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	m := kh.modifierKey
	b := kh.bindings

	switch kh.app.view {
	case ViewFeed:
		if kh.app.searchInput.Focused() {
			return []string{"enter: results", b.Back + ": clear search"}
		}
		help := []string{m + b.NewPost + ": new", m + b.Search + ": search", m + b.Refresh + ": refresh"}
		if kh.app.selectedPost() != nil {
			help = append(help, "enter: read", m+b.EditPost+": edit", m+b.DeletePost+": delete")
		}
		return append(help, m+b.ToggleTheme+": "+kh.app.theme.Mode().Opposite().String()+" theme")

	case ViewDetail:
		return []string{m + b.EditPost + ": edit", m + b.DeletePost + ": delete", b.Back + ": back to feed"}

	case ViewEditor:
		return []string{"tab: next field", "enter: submit", b.Back + ": cancel"}

	case ViewDeleteConfirm:
		return []string{"enter: confirm", b.Back + ": cancel"}

	case ViewNotFound:
		return []string{b.Back + ": back to feed"}

	default:
		return []string{}
	}
}
