package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds the keys the explorer recognizes, following spec.md §4's
// connect/explore/transfer/edit/bookmark flows.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Tab      key.Binding
	Select   key.Binding
	Transfer key.Binding
	Delete   key.Binding
	Mkdir    key.Binding
	Rename   key.Binding
	Edit     key.Binding
	Goto     key.Binding
	DirSize  key.Binding
	Hidden   key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open directory"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("backspace", "parent directory"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Select: key.NewBinding(
			key.WithKeys("space"),
			key.WithHelp("space", "toggle select"),
		),
		Transfer: key.NewBinding(
			key.WithKeys("f5", "t"),
			key.WithHelp("t", "transfer"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "f8"),
			key.WithHelp("d", "delete"),
		),
		Mkdir: key.NewBinding(
			key.WithKeys("n", "f7"),
			key.WithHelp("n", "new directory"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r", "f6"),
			key.WithHelp("r", "rename"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "f4"),
			key.WithHelp("e", "edit"),
		),
		Goto: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "goto path"),
		),
		DirSize: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "directory size"),
		),
		Hidden: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "toggle hidden"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
