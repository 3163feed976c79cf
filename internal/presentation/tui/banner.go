package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the QRET banner to w, colored for the detected terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"   ____  ____  ______ ______", "#34d399"},
		{"  / __ \\/ __ \\/ ____//_  __/", "#2dd4bf"},
		{" / / / / /_/ / __/    / /   ", "#22d3ee"},
		{"/ /_/ / _, _/ /___   / /    ", "#38bdf8"},
		{"\\___\\_\\_/ |_/_____/  /_/     ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
