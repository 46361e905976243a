// Package banner renders the framed titles printed around a build.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Width is the inner width of a banner.
const Width = 60

//nolint:gochecknoglobals // Styles are initialised once and never modified.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("13")).
			Width(Width).
			Align(lipgloss.Center)
	failureStyle = headerStyle.Foreground(lipgloss.Color("9"))
	ruleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
)

// Render returns title centred between two rules.
func Render(title string) string {
	return frame(headerStyle, title)
}

// RenderFailure is Render in the error colour.
func RenderFailure(title string) string {
	return frame(failureStyle, title)
}

// Print writes a rendered banner to w.
func Print(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, Render(title))
}

// PrintFailure writes a rendered failure banner to w.
func PrintFailure(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, RenderFailure(title))
}

func frame(style lipgloss.Style, title string) string {
	rule := ruleStyle.Render(strings.Repeat("=", Width))

	return lipgloss.JoinVertical(lipgloss.Left, rule, style.Render(title), rule)
}
