package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Keep   key.Binding
	Delete key.Binding
	Skip   key.Binding
	Quit   key.Binding
}

func newKeyMap(skipPercent int, video bool) keyMap {
	km := keyMap{
		Keep: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "keep"),
		),
		Delete: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "delete"),
		),
		Skip: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "skip "+strconv.Itoa(skipPercent)+"%"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	km.Skip.SetEnabled(video)
	return km
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Keep, k.Delete, k.Skip, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
