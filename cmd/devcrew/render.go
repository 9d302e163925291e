package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// newRenderer returns a markdown renderer for terminals and an identity
// function when stdout is redirected or raw output was requested.
func newRenderer(raw bool) func(string) string {
	if raw || !isatty.IsTerminal(os.Stdout.Fd()) {
		return func(s string) string { return s }
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(s string) string { return s }
	}

	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.TrimRight(out, "\n")
	}
}
