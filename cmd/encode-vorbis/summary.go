package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	encodevorbis "github.com/aperturerobotics/go-encodevorbis-wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// printSummary writes one line per level. Styling is applied only when w
// is a terminal.
func printSummary(w io.Writer, report *encodevorbis.Report) {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintln(w, render(titleStyle, "EncodeVorbis"))
	for _, l := range report.Levels {
		fmt.Fprintln(w, formatLevel(l, render))
	}

	failed := len(report.Failed())
	total := fmt.Sprintf("%d/%d levels ok", len(report.Levels)-failed, len(report.Levels))
	if failed > 0 {
		fmt.Fprintln(w, render(failStyle, total))
	} else {
		fmt.Fprintln(w, render(okStyle, total))
	}
}

func formatLevel(l encodevorbis.LevelResult, render func(lipgloss.Style, string) string) string {
	var b strings.Builder
	name := filepath.Base(l.Artifact)

	switch {
	case l.Err != nil:
		fmt.Fprintf(&b, "  %s %-12s %s", render(failStyle, "FAIL"), name, l.Err)
	case l.ValidationErr != nil:
		fmt.Fprintf(&b, "  %s %-12s %d bytes, invalid: %s", render(failStyle, "FAIL"), name, l.Bytes, l.ValidationErr)
	default:
		status := "encoded"
		if l.Validated {
			status = "valid"
		}
		fmt.Fprintf(&b, "  %s %-12s %d bytes, %s", render(okStyle, " OK "), name, l.Bytes, status)
	}
	b.WriteString(render(dimStyle, fmt.Sprintf(" (%s)", l.Duration.Round(time.Microsecond))))
	return b.String()
}
