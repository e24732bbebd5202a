package watch

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

const clearScreen = "\033[H\033[2J"

// terminal reports whether w is a terminal and its width.
func terminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return true, DefaultWidth
	}
	return true, width
}

// Separator renders a dashed line of the given width.
func Separator(r *lipgloss.Renderer, width int, success bool) string {
	if width <= 0 {
		width = DefaultWidth
	}
	style := r.NewStyle().Foreground(lipgloss.Color("2"))
	if !success {
		style = r.NewStyle().Foreground(lipgloss.Color("1")).Reverse(true)
	}
	return style.Render(strings.Repeat("-", width))
}
