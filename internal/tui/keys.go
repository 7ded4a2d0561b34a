package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings with built-in help text.
type KeyMap struct {
	Quit         key.Binding
	ForceQuit    key.Binding
	Pause        key.Binding
	Refresh      key.Binding
	IntervalUp   key.Binding
	IntervalDown key.Binding
	MoreEntries  key.Binding
	FewerEntries key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		IntervalUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "slower"),
		),
		IntervalDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "faster"),
		),
		MoreEntries: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "more entries"),
		),
		FewerEntries: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "fewer entries"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.Refresh, k.IntervalUp, k.IntervalDown, k.MoreEntries, k.FewerEntries}
}
