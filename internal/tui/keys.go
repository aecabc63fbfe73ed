package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// bindings of the normal browsing mode
type keyMap struct {
	Quit         key.Binding
	Search       key.Binding
	Kind         key.Binding
	Sort         key.Binding
	NextMismatch key.Binding
	PrevMismatch key.Binding
	Copy         key.Binding
	Clear        key.Binding
}

var keys = keyMap{
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Kind:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "kind")),
	Sort:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	NextMismatch: key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "mismatch")),
	PrevMismatch: key.NewBinding(key.WithKeys("N")),
	Copy:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	Clear:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
}

// helpLine renders "key:desc" pairs for bindings that carry help text
func (k keyMap) helpLine() string {
	var parts []string
	for _, b := range []key.Binding{k.Quit, k.Search, k.Kind, k.Sort, k.NextMismatch, k.PrevMismatch, k.Copy, k.Clear} {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return strings.Join(parts, "  ")
}
