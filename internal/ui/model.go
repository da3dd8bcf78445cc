// Package ui wires internal/orchestrator into a bubbletea Elm-architecture
// model: Update handles key/async messages, View renders the dual-pane
// explorer, matching the teacher's Model/Update/View split (spec.md §4).
package ui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"gateway/internal/appconfig"
	"gateway/internal/editorlauncher"
	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/orchestrator"
	"gateway/internal/pathutil"
)

// pane identifies which side of the explorer has focus.
type pane int

const (
	paneLocal pane = iota
	paneRemote
)

// inputMode tracks which single-line prompt, if any, is currently
// capturing keystrokes instead of the normal navigation bindings.
type inputMode int

const (
	inputNone inputMode = iota
	inputMkdir
	inputRename
	inputGoto
)

// Model is the bubbletea model wrapping an *orchestrator.Orchestrator.
type Model struct {
	orch *orchestrator.Orchestrator
	keys KeyMap

	focus pane

	localEntries  []fsmodel.Entry
	remoteEntries []fsmodel.Entry
	localCursor   int
	remoteCursor  int

	status   string
	showHelp bool
	width    int
	height   int

	transferring bool
	transferred  int64
	transferSize int64

	confirmDelete bool
	deleteTarget  fsmodel.Entry
	deletePane    pane

	mode       inputMode
	inputValue string

	showHidden bool
	sortMode   string
	theme      string

	// programFn resolves the running *tea.Program so background transfer
	// goroutines can Send progress messages back in. It's a function
	// rather than a field set at construction because the program itself
	// doesn't exist until after the initial Model is already handed to
	// tea.NewProgram; SetProgramGetter closes over the variable that
	// receives it.
	programFn func() *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
}

// SetProgramGetter wires fn, called lazily so it can resolve a
// *tea.Program created after this Model, back into the Model so transfer
// progress callbacks can deliver transferProgressMsg.
func (m *Model) SetProgramGetter(fn func() *tea.Program) {
	m.programFn = fn
}

// NewModel builds a Model around orch, which must already be connected;
// Init reports that connection and loads both panes. cfg
// seeds the ambient preferences (hidden-file visibility, sort order)
// persisted across sessions by internal/appconfig.
func NewModel(orch *orchestrator.Orchestrator, cfg appconfig.Config) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		orch:       orch,
		keys:       DefaultKeyMap(),
		status:     "Connecting...",
		width:      100,
		height:     30,
		showHidden: cfg.ShowHidden,
		sortMode:   cfg.SortMode,
		theme:      cfg.Theme,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ConfigSnapshot reports the current ambient preferences so app.Run can
// persist them via internal/appconfig when the program exits.
func (m Model) ConfigSnapshot() appconfig.Config {
	return appconfig.Config{
		ShowHidden:  m.showHidden,
		SortMode:    m.sortMode,
		Theme:       m.theme,
		DefaultPort: 0,
	}
}

// isHidden reports whether name follows the dotfile convention.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// visibleEntries filters out dotfiles unless showHidden is set and
// orders the remainder per sortMode ("name" or "size").
func visibleEntries(all []fsmodel.Entry, showHidden bool, sortMode string) []fsmodel.Entry {
	visible := make([]fsmodel.Entry, 0, len(all))
	for _, e := range all {
		if !showHidden && isHidden(e.Name) {
			continue
		}
		visible = append(visible, e)
	}
	switch sortMode {
	case "size":
		sort.SliceStable(visible, func(i, j int) bool { return visible[i].Size > visible[j].Size })
	default:
		sort.SliceStable(visible, func(i, j int) bool { return visible[i].Name < visible[j].Name })
	}
	return visible
}

func (m Model) Init() tea.Cmd {
	banner := m.orch.LastBanner
	return func() tea.Msg { return connectResultMsg{banner: banner} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case connectResultMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("Connect failed: %v", typed.err)
			return m, nil
		}
		m.status = bannerStatus(typed.banner)
		return m, tea.Batch(m.reloadCmd(paneLocal), m.reloadCmd(paneRemote))
	case listResultMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("List error: %v", typed.err)
			return m, nil
		}
		if typed.pane == paneLocal {
			m.localEntries = typed.entries
			if m.localCursor >= len(m.localEntries) {
				m.localCursor = maxInt(0, len(m.localEntries)-1)
			}
		} else {
			m.remoteEntries = typed.entries
			if m.remoteCursor >= len(m.remoteEntries) {
				m.remoteCursor = maxInt(0, len(m.remoteEntries)-1)
			}
		}
		return m, nil
	case transferProgressMsg:
		m.transferred = typed.transferred
		m.transferSize = typed.total
		return m, nil
	case transferDoneMsg:
		m.transferring = false
		if typed.err != nil {
			m.status = fmt.Sprintf("Transfer failed: %v", typed.err)
			return m, nil
		}
		m.status = "Transfer complete"
		return m, tea.Batch(m.reloadCmd(paneLocal), m.reloadCmd(paneRemote))
	case dirSizeResultMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("Size error: %v", typed.err)
			return m, nil
		}
		m.status = fmt.Sprintf("%d bytes across %d entries", typed.total, typed.count)
		return m, nil
	case editDoneMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("Edit failed: %v", typed.err)
			return m, nil
		}
		if typed.changed {
			m.status = "Edited and re-uploaded"
		} else {
			m.status = "No changes"
		}
		return m, m.reloadCmd(paneRemote)
	case opDoneMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", typed.label, typed.err)
			return m, nil
		}
		m.status = typed.label + " done"
		return m, tea.Batch(m.reloadCmd(paneLocal), m.reloadCmd(paneRemote))
	default:
		return m, nil
	}
}

func bannerStatus(banner string) string {
	if banner == "" {
		return "Connected"
	}
	return "Connected: " + banner
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.mode != inputNone:
		return m.handleInputKey(msg)
	case m.confirmDelete:
		return m.handleConfirmDeleteKey(msg)
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		m.orch.Disconnect()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.focus = otherPane(m.focus)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m.enterSelected()
	case key.Matches(msg, m.keys.Back):
		return m.goUp()
	case key.Matches(msg, m.keys.Transfer):
		return m.beginTransfer()
	case key.Matches(msg, m.keys.Delete):
		return m.beginDelete()
	case key.Matches(msg, m.keys.Mkdir):
		m.mode = inputMkdir
		m.inputValue = ""
		m.status = "New directory name:"
		return m, nil
	case key.Matches(msg, m.keys.Rename):
		m.mode = inputRename
		m.inputValue = ""
		m.status = "Rename to:"
		return m, nil
	case key.Matches(msg, m.keys.Goto):
		m.mode = inputGoto
		m.inputValue = ""
		m.status = "Go to path:"
		return m, nil
	case key.Matches(msg, m.keys.DirSize):
		return m.beginDirSize()
	case key.Matches(msg, m.keys.Edit):
		return m.beginEdit()
	case key.Matches(msg, m.keys.Hidden):
		m.showHidden = !m.showHidden
		m.localCursor = 0
		m.remoteCursor = 0
		return m, nil
	default:
		return m, nil
	}
}

func otherPane(p pane) pane {
	if p == paneLocal {
		return paneRemote
	}
	return paneLocal
}

func (m *Model) entries() []fsmodel.Entry {
	if m.focus == paneLocal {
		return m.localVisible()
	}
	return m.remoteVisible()
}

// localVisible returns the local pane's entries after hidden-file
// filtering and sorting.
func (m *Model) localVisible() []fsmodel.Entry {
	return visibleEntries(m.localEntries, m.showHidden, m.sortMode)
}

// remoteVisible returns the remote pane's entries after hidden-file
// filtering and sorting.
func (m *Model) remoteVisible() []fsmodel.Entry {
	return visibleEntries(m.remoteEntries, m.showHidden, m.sortMode)
}

func (m *Model) cursor() int {
	if m.focus == paneLocal {
		return m.localCursor
	}
	return m.remoteCursor
}

func (m *Model) setCursor(v int) {
	if m.focus == paneLocal {
		m.localCursor = v
	} else {
		m.remoteCursor = v
	}
}

func (m *Model) moveCursor(delta int) {
	entries := m.entries()
	if len(entries) == 0 {
		return
	}
	next := m.cursor() + delta
	if next < 0 {
		next = 0
	}
	if next >= len(entries) {
		next = len(entries) - 1
	}
	m.setCursor(next)
}

func (m *Model) selected() (fsmodel.Entry, bool) {
	entries := m.entries()
	idx := m.cursor()
	if idx < 0 || idx >= len(entries) {
		return fsmodel.Entry{}, false
	}
	return entries[idx], true
}

func (m Model) enterSelected() (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok || entry.Kind != fsmodel.KindDirectory {
		return m, nil
	}
	if m.focus == paneLocal {
		if err := m.orch.ChangeLocalDir(entry.Path); err != nil {
			m.status = fmt.Sprintf("cd failed: %v", err)
			return m, nil
		}
		m.localCursor = 0
		return m, m.reloadCmd(paneLocal)
	}
	if err := m.orch.ChangeRemoteDir(entry.Path); err != nil {
		m.status = fmt.Sprintf("cd failed: %v", err)
		return m, nil
	}
	m.remoteCursor = 0
	return m, m.reloadCmd(paneRemote)
}

func (m Model) goUp() (tea.Model, tea.Cmd) {
	if m.focus == paneLocal {
		if err := m.orch.ChangeLocalDir(".."); err != nil {
			m.status = fmt.Sprintf("cd failed: %v", err)
			return m, nil
		}
		m.localCursor = 0
		return m, m.reloadCmd(paneLocal)
	}
	if err := m.orch.ChangeRemoteDir(".."); err != nil {
		m.status = fmt.Sprintf("cd failed: %v", err)
		return m, nil
	}
	m.remoteCursor = 0
	return m, m.reloadCmd(paneRemote)
}

func (m Model) reloadCmd(p pane) tea.Cmd {
	return func() tea.Msg {
		var entries []fsmodel.Entry
		var err error
		if p == paneLocal {
			entries, err = m.orch.ListLocal()
		} else {
			entries, err = m.orch.ListRemote()
		}
		return listResultMsg{pane: p, entries: entries, err: err}
	}
}

func (m Model) beginTransfer() (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok {
		return m, nil
	}
	if m.transferring {
		m.status = "Transfer already running"
		return m, nil
	}
	m.transferring = true
	m.transferred = 0
	m.transferSize = entry.Size

	src, dst, dstDir := m.orch.Local, m.orch.Remote, m.orch.RemoteWd
	if m.focus == paneRemote {
		src, dst, dstDir = m.orch.Remote, m.orch.Local, m.orch.LocalWd
	}
	dstPath := dstDir + "/" + entry.Name
	programFn := m.programFn

	return m, func() tea.Msg {
		var err error
		onProgress := func(transferred, total int64) {
			if programFn == nil {
				return
			}
			if program := programFn(); program != nil {
				program.Send(transferProgressMsg{transferred: transferred, total: total})
			}
		}
		if entry.Kind == fsmodel.KindDirectory {
			err = orchestrator.TransferDirectory(m.ctx, src, dst, entry, dstPath, onProgress)
		} else {
			err = orchestrator.TransferFile(m.ctx, src, dst, entry, dstPath, onProgress)
		}
		return transferDoneMsg{err: err}
	}
}

func (m Model) beginDelete() (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.confirmDelete = true
	m.deleteTarget = entry
	m.deletePane = m.focus
	m.status = fmt.Sprintf("Delete %q? (y/n)", entry.Name)
	return m, nil
}

func (m Model) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmDelete = false
		fs := m.orch.Local
		if m.deletePane == paneRemote {
			fs = m.orch.Remote
		}
		entry := m.deleteTarget
		return m, func() tea.Msg {
			return opDoneMsg{label: "Delete", err: fs.Remove(entry)}
		}
	case key.Matches(msg, m.keys.Cancel):
		m.confirmDelete = false
		m.status = "Delete cancelled"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) beginDirSize() (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok || entry.Kind != fsmodel.KindDirectory {
		return m, nil
	}
	fs := m.orch.Local
	if m.focus == paneRemote {
		fs = m.orch.Remote
	}
	ctx := m.ctx
	return m, func() tea.Msg {
		total, count, err := orchestrator.DirectorySize(ctx, fs, entry)
		return dirSizeResultMsg{total: total, count: count, err: err}
	}
}

func (m Model) beginEdit() (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok || entry.Kind != fsmodel.KindFile {
		return m, nil
	}
	if m.focus == paneLocal {
		return m, func() tea.Msg {
			err := editorlauncher.Launch(entry.Path)
			return editDoneMsg{changed: true, err: err}
		}
	}
	ctx := m.ctx
	remote := m.orch.Remote
	return m, func() tea.Msg {
		session, err := orchestrator.BeginRemoteEdit(ctx, remote, entry)
		if err != nil {
			if ferrors.Is(err, ferrors.UnsupportedFeature) {
				return editDoneMsg{err: fmt.Errorf("refusing to edit binary file")}
			}
			return editDoneMsg{err: err}
		}
		if err := editorlauncher.Launch(session.TempPath); err != nil {
			os.Remove(session.TempPath)
			return editDoneMsg{err: err}
		}
		changed, err := orchestrator.FinishRemoteEdit(ctx, remote, session)
		return editDoneMsg{changed: changed, err: err}
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.status = "Cancelled"
		return m, nil
	case tea.KeyEnter:
		mode := m.mode
		value := strings.TrimSpace(m.inputValue)
		m.mode = inputNone
		return m.submitInput(mode, value)
	case tea.KeyBackspace, tea.KeyDelete:
		if len(m.inputValue) > 0 {
			m.inputValue = m.inputValue[:len(m.inputValue)-1]
		}
		return m, nil
	default:
		if msg.Type == tea.KeyRunes {
			m.inputValue += string(msg.Runes)
		}
		return m, nil
	}
}

func (m Model) submitInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	fs := m.orch.Local
	wd := m.orch.LocalWd
	if m.focus == paneRemote {
		fs = m.orch.Remote
		wd = m.orch.RemoteWd
	}

	switch mode {
	case inputMkdir:
		if value == "" {
			return m, nil
		}
		path := pathutil.Resolve(wd, value)
		return m, func() tea.Msg {
			return opDoneMsg{label: "Mkdir", err: fs.Mkdir(path)}
		}
	case inputRename:
		entry, ok := m.selected()
		if !ok || value == "" {
			return m, nil
		}
		newPath := pathutil.Resolve(wd, value)
		return m, func() tea.Msg {
			return opDoneMsg{label: "Rename", err: fs.Rename(entry, newPath)}
		}
	case inputGoto:
		if value == "" {
			return m, nil
		}
		path := pathutil.Resolve(wd, value)
		if m.focus == paneLocal {
			if err := m.orch.ChangeLocalDir(path); err != nil {
				m.status = fmt.Sprintf("Goto failed: %v", err)
				return m, nil
			}
			m.localCursor = 0
			return m, m.reloadCmd(paneLocal)
		}
		if err := m.orch.ChangeRemoteDir(path); err != nil {
			m.status = fmt.Sprintf("Goto failed: %v", err)
			return m, nil
		}
		m.remoteCursor = 0
		return m, m.reloadCmd(paneRemote)
	default:
		return m, nil
	}
}
