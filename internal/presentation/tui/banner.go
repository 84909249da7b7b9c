package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner to w, colored when w supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	lines := []struct {
		text, color string
	}{
		{`  __  __             _               _____           _     `, "#56b4a2"},
		{` |  \/  | ___  _ __ | | _____ _   _ |_   _|__   ___ | |___ `, "#6cc0a5"},
		{` | |\/| |/ _ \| '_ \| |/ / _ \ | | |  | |/ _ \ / _ \| / __|`, "#a3cf8a"},
		{` | |  | | (_) | | | |   <  __/ |_| |  | | (_) | (_) | \__ \`, "#d6cf6e"},
		{` |_|  |_|\___/|_| |_|_|\_\___|\__, |  |_|\___/ \___/|_|___/`, "#f3cd5f"},
		{`                              |___/                        `, "#f3cd5f"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  text & document tools "+version).Faint())
	fmt.Fprintln(w)
}
