package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr

	quiet bool
)

// SetQuiet suppresses everything except errors.
func SetQuiet(q bool) {
	quiet = q
}

// DisableColor renders every style as plain text.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func writeLine(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}

func PrintSuccess(msg string) {
	if quiet {
		return
	}
	writeLine(Stdout, SuccessBadge.Render("DONE")+" "+msg)
}

func PrintInfo(msg string) {
	if quiet {
		return
	}
	writeLine(Stdout, InfoBadge.Render("INFO")+" "+msg)
}

func PrintWarning(msg string) {
	if quiet {
		return
	}
	writeLine(Stderr, WarningBadge.Render("WARN")+" "+msg)
}

func PrintError(msg string) {
	writeLine(Stderr, ErrorBoxStyle.Render(ErrorBadge.Render("ERROR")+" "+msg))
}

func PrintErrorWithHint(msg, hint string) {
	writeLine(Stderr, ErrorBoxStyle.Render(ErrorBadge.Render("ERROR")+" "+msg+"\n\n"+MutedStyle.Render(hint)))
}
