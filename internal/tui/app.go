package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/blogr/internal/config"
	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/feed"
	"github.com/pders01/blogr/internal/posts"
	"github.com/pders01/blogr/internal/search"
	"github.com/pders01/blogr/internal/storage"
	"github.com/pders01/blogr/internal/theme"
)

type App struct {
	config     *config.Config
	posts      *posts.Store
	theme      *theme.State
	index      *search.Index
	controller *feed.Controller
	sentinel   *listSentinel
	keyHandler *KeyHandler

	postList    list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	progress    progress.Model
	spinner     spinner.Model
	editor      *editor

	view         View
	detailID     storage.PostID
	openOnLoad   storage.PostID
	deleteTarget *storage.Post
	deleteReturn View
	rendering    bool
	mutating     bool

	// pending collects commands queued by controller callbacks.
	pending     []tea.Cmd
	invalidated chan string
	done        chan struct{}
	unsubscribe func()
	closed      bool

	stale      bool
	fetchedAt  time.Time
	loadErr    error
	status     string
	statusKind StatusKind
	statusSeq  int
	busy       bool

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	rendererMode    theme.Mode
}

func NewApp(cfg *config.Config, store *posts.Store, themeState *theme.State) *App {
	if themeState == nil {
		themeState = theme.Load(nil)
	}

	postList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	postList.SetShowTitle(false)
	postList.SetShowStatusBar(false)
	postList.SetFilteringEnabled(false)
	postList.SetShowHelp(true)
	postList.DisableQuitKeybindings()

	si := textinput.New()
	si.Placeholder = "Search posts..."
	si.Prompt = "⌕ "
	si.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	app := &App{
		config:      cfg,
		posts:       store,
		theme:       themeState,
		sentinel:    &listSentinel{},
		postList:    postList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		view:        ViewFeed,
		invalidated: make(chan string, 1),
		done:        make(chan struct{}),
	}

	var matcher search.Matcher
	matcher, app.index = newMatcher(cfg)
	app.controller = feed.NewController(cfg.Feed.PageSize, matcher, app.schedulePage)
	app.controller.Attach(app.sentinel)

	app.unsubscribe = store.Subscribe(func(tag string) {
		select {
		case app.invalidated <- tag:
		default:
		}
	})

	app.onThemeChange(themeState.Mode())
	themeState.OnChange(app.onThemeChange)

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

// newMatcher picks the search backend named in the config. A full-text
// index that cannot be created falls back to title matching.
func newMatcher(cfg *config.Config) (search.Matcher, *search.Index) {
	if cfg.Search.Mode != config.SearchModeFullText {
		return search.NewTitleMatcher(), nil
	}
	idx, err := search.NewIndex()
	if err != nil {
		debuglog.Warnf("tui: full-text index unavailable, using title search: %v", err)
		return search.NewTitleMatcher(), nil
	}
	return idx, idx
}

// OpenOnLoad shows the detail view of id once the first collection arrives.
func (a *App) OpenOnLoad(id storage.PostID) {
	a.openOnLoad = id
}

// Close disposes the feed controller and releases the subscription and
// search index. Safe to call more than once.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.controller.Dispose()
	a.unsubscribe()
	close(a.done)
	if a.index != nil {
		return a.index.Close()
	}
	return nil
}

func (a *App) onThemeChange(mode theme.Mode) {
	applyPalette(mode)
	a.glamourRenderer = nil
	a.spinner.Style = lipgloss.NewStyle().Foreground(PrimaryColor)
	a.progress = progress.New(
		progress.WithSolidFill(string(PrimaryColor)),
		progress.WithoutPercentage(),
	)
	a.layout()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.startSpinner(MsgLoadingPosts),
		a.loadPosts(),
		a.waitForInvalidation(),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		if a.view == ViewEditor {
			return a, a.updateEditor(msg)
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case postsLoadedMsg:
		return a, a.handlePostsLoaded(msg)

	case postsInvalidatedMsg:
		debuglog.Debugf("tui: tag %s invalidated, refetching", msg.tag)
		return a, tea.Batch(a.loadPosts(), a.waitForInvalidation())

	case pageSettleMsg:
		if a.controller.Settle(msg.ticket) {
			return a, a.syncList(false)
		}
		return a, nil

	case searchDebounceFireMsg:
		return a, a.applySearch(a.controller.Expire(msg.seq))

	case postRenderedMsg:
		if a.view == ViewDetail && msg.id == a.detailID {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.rendering = false
		}
		return a, nil

	case postCreatedMsg:
		return a, a.handlePostSaved(msg.post, msg.err, MsgPublished, "publish post")

	case postUpdatedMsg:
		return a, a.handlePostSaved(msg.post, msg.err, MsgPostUpdated, "save post")

	case postDeletedMsg:
		return a, a.handlePostDeleted(msg)

	case statusClearMsg:
		if msg.seq == a.statusSeq && !a.busy {
			a.status = ""
			a.statusKind = StatusInfo
		}
		return a, nil

	case errorMsg:
		return a, a.setStatus(StatusError, describeErr(msg.err))
	}

	switch a.view {
	case ViewEditor:
		return a, a.updateEditor(msg)
	case ViewDetail:
		switch msg.(type) {
		case tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
	case ViewFeed:
		if mouse, ok := msg.(tea.MouseMsg); ok {
			return a, a.handleFeedMouse(mouse)
		}
		if a.searchInput.Focused() {
			var cmd tea.Cmd
			a.searchInput, cmd = a.searchInput.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

// handleFeedMouse moves the selection with the wheel; reaching the last row
// reveals the next page as it does for the arrow keys.
func (a *App) handleFeedMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		a.postList.CursorDown()
	case tea.MouseButtonWheelUp:
		a.postList.CursorUp()
	default:
		return nil
	}
	a.sentinel.check(a.postList)
	return a.drainPending()
}

func (a *App) handlePostsLoaded(msg postsLoadedMsg) tea.Cmd {
	a.stopSpinner()
	if msg.err != nil && !msg.stale {
		a.loadErr = msg.err
		return a.setStatus(StatusError, MsgActionFailed("load posts", describeErr(msg.err)))
	}

	a.loadErr = nil
	a.stale = msg.stale
	a.fetchedAt = msg.fetchedAt
	a.controller.SetCollection(msg.posts)

	cmds := []tea.Cmd{a.syncList(true)}
	if msg.stale {
		cmds = append(cmds, a.setStatus(StatusWarn, MsgOffline(msg.fetchedAt)))
	} else if a.statusKind == StatusInfo {
		a.status = ""
	}

	switch {
	case a.openOnLoad != "":
		id := a.openOnLoad
		a.openOnLoad = ""
		cmds = append(cmds, a.openDetail(id))
	case a.view == ViewDetail || a.view == ViewNotFound:
		cmds = append(cmds, a.openDetail(a.detailID))
	}
	return tea.Batch(cmds...)
}

func (a *App) handlePostSaved(saved *storage.Post, err error, success, action string) tea.Cmd {
	a.stopSpinner()
	if err != nil {
		var cmds []tea.Cmd
		if a.editor != nil {
			a.editor.rebuild(a.width)
			cmds = append(cmds, a.editor.form.Init())
		}
		cmds = append(cmds, a.setStatus(StatusError, MsgActionFailed(action, describeErr(err))))
		return tea.Batch(cmds...)
	}

	returnTo := ViewFeed
	if a.editor != nil && !a.editor.creating() {
		returnTo = a.editor.returnTo
	}
	a.editor = nil
	a.view = returnTo
	if returnTo == ViewDetail && saved != nil {
		a.detailID = saved.ID
	}
	return a.setStatus(StatusSuccess, success)
}

func (a *App) handlePostDeleted(msg postDeletedMsg) tea.Cmd {
	a.stopSpinner()
	a.mutating = false
	if msg.err != nil {
		a.view = a.deleteReturn
		a.deleteTarget = nil
		return a.setStatus(StatusError, MsgActionFailed("delete post", describeErr(msg.err)))
	}

	a.deleteTarget = nil
	if a.detailID == msg.id {
		a.detailID = ""
	}
	a.view = ViewFeed
	return a.setStatus(StatusSuccess, MsgPostDeleted)
}

// syncList rebuilds the list items from the controller's display set.
func (a *App) syncList(resetCursor bool) tea.Cmd {
	display := a.controller.Display()
	term := ""
	if a.controller.Searching() {
		term = a.controller.Term()
	}

	items := make([]list.Item, len(display))
	for i, p := range display {
		items[i] = postItem{post: p, term: term, wpm: a.config.UI.WordsPerMin}
	}

	idx := a.postList.Index()
	cmd := a.postList.SetItems(items)
	if resetCursor || idx >= len(items) {
		a.postList.Select(0)
	} else {
		a.postList.Select(idx)
	}
	return cmd
}

func (a *App) applySearch(tr feed.Transition) tea.Cmd {
	if tr == feed.Unchanged {
		return nil
	}
	a.layout()
	return a.syncList(true)
}

func (a *App) clearSearch() tea.Cmd {
	a.searchInput.Reset()
	a.searchInput.Blur()
	return a.applySearch(a.controller.ClearSearch())
}

func (a *App) selectedPost() *storage.Post {
	if i, ok := a.postList.SelectedItem().(postItem); ok {
		return i.post
	}
	return nil
}

func (a *App) currentPost() (*storage.Post, bool) {
	if a.detailID == "" {
		return nil, false
	}
	return a.controller.Find(a.detailID)
}

// openDetail shows the post with id, or the not-found view when the
// current collection has no such post.
func (a *App) openDetail(id storage.PostID) tea.Cmd {
	a.detailID = id
	post, ok := a.controller.Find(id)
	if !ok {
		debuglog.Infof("tui: post %s not in collection", id)
		a.view = ViewNotFound
		return nil
	}
	a.view = ViewDetail
	a.rendering = true
	return a.renderPost(post)
}

func (a *App) openEditor(target *storage.Post, returnTo View) tea.Cmd {
	a.editor = newEditor(target, returnTo, a.width)
	a.view = ViewEditor
	return a.editor.form.Init()
}

func (a *App) closeEditor() {
	if a.editor == nil {
		a.view = ViewFeed
		return
	}
	a.view = a.editor.returnTo
	a.editor = nil
}

func (a *App) updateEditor(msg tea.Msg) tea.Cmd {
	e := a.editor
	if e == nil {
		return nil
	}
	if _, isKey := msg.(tea.KeyMsg); isKey && e.busy {
		return nil
	}

	model, cmd := e.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		e.form = f
	}

	switch e.form.State {
	case huh.StateCompleted:
		return tea.Batch(cmd, a.submitEditor())
	case huh.StateAborted:
		a.closeEditor()
		return nil
	}
	return cmd
}

// submitEditor validates the draft and sends it. Invalid input stays in the
// editor with an inline message and no request is made.
func (a *App) submitEditor() tea.Cmd {
	e := a.editor
	if e == nil || e.busy {
		return nil
	}
	in, ok := e.validate()
	if !ok {
		e.rebuild(a.width)
		return e.form.Init()
	}

	e.busy = true
	post := e.post(in)
	if e.creating() {
		return tea.Batch(a.startSpinner(MsgPublishing), a.createPost(post))
	}
	return tea.Batch(a.startSpinner(MsgSaving), a.updatePost(post))
}

func (a *App) confirmDelete(post *storage.Post, returnTo View) {
	a.deleteTarget = post
	a.deleteReturn = returnTo
	a.view = ViewDeleteConfirm
}

func (a *App) submitDelete() tea.Cmd {
	if a.deleteTarget == nil || a.mutating {
		return nil
	}
	a.mutating = true
	return tea.Batch(a.startSpinner(MsgDeleting), a.deletePost(a.deleteTarget.ID))
}

// refresh invalidates the posts tag; the subscription triggers the refetch.
func (a *App) refresh() tea.Cmd {
	cmd := a.startSpinner(MsgRefreshing)
	a.posts.Invalidate(posts.TagPosts)
	return cmd
}

func (a *App) toggleTheme() tea.Cmd {
	var cmds []tea.Cmd
	if err := a.theme.Toggle(); err != nil {
		cmds = append(cmds, a.setStatus(StatusWarn, MsgActionFailed("save theme", err.Error())))
	} else {
		cmds = append(cmds, a.setStatus(StatusInfo, "Theme: "+a.theme.Mode().String()))
	}
	if post, ok := a.currentPost(); ok && a.view == ViewDetail {
		a.rendering = true
		cmds = append(cmds, a.renderPost(post))
	}
	return tea.Batch(cmds...)
}

func (a *App) contentHeight() int {
	return max(a.height-3, 1)
}

func (a *App) searchBarVisible() bool {
	return a.searchInput.Focused() || a.controller.RawTerm() != ""
}

// layout sizes every component for the current window.
func (a *App) layout() {
	if a.width == 0 || a.height == 0 {
		return
	}
	h := a.contentHeight()

	listHeight := h - 3
	if a.searchBarVisible() {
		listHeight -= 3
	}
	a.postList.SetSize(a.width, max(listHeight, 3))
	a.searchInput.Width = max(a.width-12, 10)

	a.viewport.Width = a.width
	a.viewport.Height = max(h-3, 3)
	a.progress.Width = max(a.width-4, 10)
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewFeed:
		content = a.feedView()
	case ViewDetail:
		content = a.detailView()
	case ViewEditor:
		if a.editor != nil {
			content = a.editor.view(a.width)
			if a.editor.busy {
				content = renderCentered(a.width, a.contentHeight(), renderMuted(a.status))
			}
		}
	case ViewDeleteConfirm:
		content = a.deleteConfirmView()
	case ViewNotFound:
		content = a.notFoundView()
	}

	content = ContentWrapper(a.width, a.contentHeight()).Render(content)

	customStatus := a.getCustomStatusBar()
	if customStatus != "" {
		return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width), customStatus)
	}

	return content
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height)
}

func (a *App) feedHeader() string {
	title := HeaderStyle.Render("› posts")
	if a.controller.Loaded() {
		title += " " + renderBadge(MsgPostCount(a.controller.Total()))
	}

	subtitle := "newest first"
	switch {
	case a.stale:
		subtitle = MsgOffline(a.fetchedAt)
	case a.controller.Searching():
		subtitle = "search results in publication order"
	}
	return lipgloss.JoinVertical(lipgloss.Top, title, renderMuted(truncateEnd(subtitle, a.width-2)), "")
}

func (a *App) searchBar() string {
	if !a.searchBarVisible() {
		return ""
	}
	return renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)
}

func (a *App) feedFooter() string {
	switch {
	case a.controller.Searching():
		return renderMuted(MsgMatchCount(len(a.postList.Items())))
	case a.controller.Loading():
		return renderMuted(MsgLoadingMore)
	case a.controller.HasMore():
		return renderHelp("↓ scroll for more")
	default:
		return renderMuted(MsgEndOfFeed)
	}
}

func (a *App) feedView() string {
	rows := []string{a.feedHeader()}
	if bar := a.searchBar(); bar != "" {
		rows = append(rows, bar)
	}
	bodyHeight := a.contentHeight() - lipgloss.Height(strings.Join(rows, "\n"))

	switch a.controller.State() {
	case feed.StateLoading:
		if a.loadErr != nil {
			rows = append(rows, renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
				lipgloss.Center,
				StatusErrorStyle.Render("✗ Could not load posts"),
				"",
				renderMuted(truncateMiddle(describeErr(a.loadErr), max(a.width-8, 20))),
				"",
				renderHelp(a.keyHandler.modifierKey+a.config.Keys.Bindings.Refresh+": retry"),
			)))
		} else {
			rows = append(rows, renderCentered(a.width, bodyHeight, a.spinner.View()+" "+MsgLoadingPosts))
		}
	case feed.StateEmpty:
		rows = append(rows, renderCentered(a.width, bodyHeight, GetWelcomeMessage(a.keyHandler.modifierKey)))
	case feed.StateNoMatches:
		rows = append(rows, renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			ModalTextStyle.Render(MsgNoMatches(a.controller.Term())),
			"",
			renderHelp("esc: clear search"),
		)))
	default:
		rows = append(rows, a.postList.View(), a.feedFooter())
	}

	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) readingProgress() int {
	return int(math.Round(a.viewport.ScrollPercent() * 100))
}

func (a *App) detailView() string {
	post, ok := a.currentPost()
	if !ok {
		return a.notFoundView()
	}

	minutes := max(1, readingTime(post.Body, a.config.UI.WordsPerMin))
	pct := a.readingProgress()
	header := renderHeader("› "+post.Title, fmt.Sprintf("%s • %d%% read", MsgReadingTime(minutes), pct), a.width)
	bar := a.progress.ViewAs(float64(pct) / 100)

	body := a.viewport.View()
	if a.rendering {
		body = renderCentered(a.width, a.viewport.Height, renderMuted("Rendering post…"))
	}
	return lipgloss.JoinVertical(lipgloss.Top, header, bar, body)
}

func (a *App) deleteConfirmView() string {
	title := "Untitled post"
	if a.deleteTarget != nil && a.deleteTarget.Title != "" {
		title = a.deleteTarget.Title
	}

	modalWidth := (a.width * 4) / 5
	if modalWidth < 20 {
		modalWidth = max(a.width-4, 15)
	}

	return renderCentered(a.width, a.contentHeight(), lipgloss.JoinVertical(
		lipgloss.Center,
		ModalTitleStyle.Render("⚠ Delete Post"),
		"",
		ModalTextStyle.Width(modalWidth).Align(lipgloss.Center).Render("Delete this post?"),
		"",
		HeaderStyle.Width(modalWidth).Align(lipgloss.Center).Render(truncateEnd(title, modalWidth-4)),
		"",
		renderMuted("This cannot be undone."),
		"",
		"",
		renderHelp("Enter: confirm • Esc: cancel"),
	))
}

func (a *App) notFoundView() string {
	return renderCentered(a.width, a.contentHeight(), lipgloss.JoinVertical(
		lipgloss.Center,
		ModalTitleStyle.Render("Post not found"),
		"",
		ModalTextStyle.Render(fmt.Sprintf("There is no post with id %q.", a.detailID.String())),
		"",
		renderHelp("esc: back to feed"),
	))
}

func (a *App) getCustomStatusBar() string {
	width := max(a.width-4, 10)

	if a.status != "" {
		text := truncateMiddle(a.status, width-2)
		if a.busy {
			text = a.spinner.View() + " " + text
		} else {
			text = a.statusKind.icon() + text
		}
		return lipgloss.NewStyle().
			Width(a.width).
			Padding(0, 1).
			Render(a.statusKind.style().Render(text))
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	if len(commands) == 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(MutedColor).
		Render(truncateEnd(strings.Join(commands, " • "), width))
}
