package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grafana/create-plugin/internal/codemods"
)

var changeBadges = map[codemods.ChangeType]lipgloss.Style{
	codemods.ChangeAdd:    lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
	codemods.ChangeUpdate: lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	codemods.ChangeDelete: lipgloss.NewStyle().Foreground(ColorError).Bold(true),
	codemods.ChangeRename: lipgloss.NewStyle().Foreground(ColorInfo).Bold(true),
}

// FormatChange renders one change as "ADD path" or "RENAME from -> to".
func FormatChange(ch codemods.Change) string {
	label := strings.ToUpper(string(ch.Type))
	if style, ok := changeBadges[ch.Type]; ok {
		label = style.Render(label)
	}
	if ch.Type == codemods.ChangeRename {
		return fmt.Sprintf("%s %s -> %s", label, ch.RenamedFrom, ch.Path)
	}
	return label + " " + ch.Path
}

// ChangeReporter prints what each codemod changed as it finishes. With
// Diffs set it also prints a unified diff per touched file.
type ChangeReporter struct {
	Out   io.Writer
	Diffs bool
}

func NewChangeReporter(out io.Writer, diffs bool) *ChangeReporter {
	return &ChangeReporter{Out: out, Diffs: diffs}
}

func (r *ChangeReporter) Report(mod codemods.Codemod, c *codemods.Context, changes []codemods.Change) {
	if quiet {
		return
	}

	rule := MutedStyle.Render(strings.Repeat("─", 40))
	fmt.Fprintln(r.Out, rule)
	if mod.Description != "" {
		fmt.Fprintf(r.Out, "%s %s\n", HeaderStyle.Render(mod.Name), MutedStyle.Render("("+mod.Description+")"))
	} else {
		fmt.Fprintln(r.Out, HeaderStyle.Render(mod.Name))
	}

	if len(changes) == 0 {
		fmt.Fprintln(r.Out, MutedStyle.Render("No changes were made"))
		return
	}

	for _, ch := range changes {
		fmt.Fprintf(r.Out, "  • %s\n", FormatChange(ch))
	}

	if !r.Diffs {
		return
	}
	for _, ch := range changes {
		if ch.Type == codemods.ChangeDelete {
			continue
		}
		diff, err := codemods.ContentDiff(c, ch.Path)
		if err != nil || diff == "" {
			continue
		}
		fmt.Fprintln(r.Out, ColorDiff(diff))
	}
}

// ColorDiff colours the lines of a unified diff.
func ColorDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = lipgloss.NewStyle().Bold(true).Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = DiffHunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = DiffAddStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = DiffRemoveStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// PrintChanges lists pending changes, as left by a dry run.
func PrintChanges(changes []codemods.Change) {
	if quiet {
		return
	}
	if len(changes) == 0 {
		writeLine(Stdout, MutedStyle.Render("No changes would be made"))
		return
	}
	writeLine(Stdout, HeaderStyle.Render("Changes:"))
	for _, ch := range changes {
		writeLine(Stdout, "  • "+FormatChange(ch))
	}
}
