package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextWindow  key.Binding
	PrevWindow  key.Binding
	Play        key.Binding
	Loop        key.Binding
	Faster      key.Binding
	Slower      key.Binding
	Mode        key.Binding
	Attribute   key.Binding
	ToggleBin   key.Binding
	ClearBins   key.Binding
	Focus       key.Binding
	Interaction key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	PanUp       key.Binding
	PanDown     key.Binding
	PanLeft     key.Binding
	PanRight    key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Select      key.Binding
	Clear       key.Binding
	Share       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	NextWindow:  key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next window")),
	PrevWindow:  key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev window")),
	Play:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
	Loop:        key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "loop")),
	Faster:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
	Slower:      key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
	Mode:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	Attribute:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attribute")),
	ToggleBin:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "toggle bin")),
	ClearBins:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear all")),
	Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
	Interaction: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "point/brush")),
	ZoomIn:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom in")),
	ZoomOut:     key.NewBinding(key.WithKeys("Z"), key.WithHelp("Z", "zoom out")),
	PanUp:       key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "pan up")),
	PanDown:     key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "pan down")),
	PanLeft:     key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "pan left")),
	PanRight:    key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("shift+→", "pan right")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Select:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Clear:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
	Share:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share digest")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevWindow, k.NextWindow, k.Play, k.Focus, k.Select, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevWindow, k.NextWindow, k.Play, k.Loop, k.Faster, k.Slower},
		{k.Mode, k.Attribute, k.ToggleBin, k.ClearBins, k.Interaction},
		{k.Focus, k.Up, k.Down, k.Left, k.Right, k.Select, k.Clear},
		{k.ZoomIn, k.ZoomOut, k.PanUp, k.PanDown, k.PanLeft, k.PanRight},
		{k.Share, k.Help, k.Quit},
	}
}
