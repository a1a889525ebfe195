package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// View switching
	ViewFeed     key.Binding
	ViewActivity key.Binding

	// Feed actions
	Refresh   key.Binding
	LoadMore  key.Binding
	Like      key.Binding
	Compose   key.Binding
	Delete    key.Binding
	Comments  key.Binding
	Reconnect key.Binding
	Login     key.Binding
	Logout    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close panel"),
		),

		ViewFeed: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Feed view"),
		),
		ViewActivity: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Activity view"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh feed"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Load more"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Like/unlike"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Compose post"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete own post"),
		),
		Comments: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Comments"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reconnect"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Log out"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewFeed, k.ViewActivity, k.Up, k.Down, k.Top, k.Bottom},
		{k.Refresh, k.LoadMore, k.Like, k.Compose, k.Delete, k.Comments},
		{k.Reconnect, k.Login, k.Logout},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
