package render

import "github.com/charmbracelet/lipgloss"

// Theme bundles the lipgloss styles used to draw diffs and conflicts.
//
// The zero value renders everything unstyled; use Dark, Light, or NoColor for the
// built-in themes.
type Theme struct {
	FileHeader  lipgloss.Style // file title line
	HunkHeader  lipgloss.Style // "@@" lines
	LineNo      lipgloss.Style // line number gutter and dim annotations
	Context     lipgloss.Style // unchanged lines
	Added       lipgloss.Style // added lines
	Removed     lipgloss.Style // removed lines
	AddedEmph   lipgloss.Style // changed spans within added lines
	RemovedEmph lipgloss.Style // changed spans within removed lines
	Cursor      lipgloss.Style // cursor marker column
	Selected    lipgloss.Style // selection marker column
	Error       lipgloss.Style // error messages

	ConflictMarker lipgloss.Style // <<<<<<< ||||||| ======= >>>>>>>
	ConflictOurs   lipgloss.Style // our side of a conflict
	ConflictTheirs lipgloss.Style // their side of a conflict

	SyntaxStyle string // chroma style name; "" disables syntax highlighting
}

// Dark returns the default theme for dark terminals.
func Dark() Theme {
	return Theme{
		FileHeader:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		HunkHeader:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		LineNo:      lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Context:     lipgloss.NewStyle(),
		Added:       lipgloss.NewStyle().Background(lipgloss.Color("22")),
		Removed:     lipgloss.NewStyle().Background(lipgloss.Color("52")),
		AddedEmph:   lipgloss.NewStyle().Background(lipgloss.Color("28")),
		RemovedEmph: lipgloss.NewStyle().Background(lipgloss.Color("88")),
		Cursor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),

		ConflictMarker: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		ConflictOurs:   lipgloss.NewStyle().Background(lipgloss.Color("17")),
		ConflictTheirs: lipgloss.NewStyle().Background(lipgloss.Color("58")),

		SyntaxStyle: "monokai",
	}
}

// Light returns the default theme for light terminals.
func Light() Theme {
	return Theme{
		FileHeader:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		HunkHeader:  lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		LineNo:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Context:     lipgloss.NewStyle().Foreground(lipgloss.Color("0")),
		Added:       lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("194")),
		Removed:     lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("224")),
		AddedEmph:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("114")),
		RemovedEmph: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("217")),
		Cursor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		Error:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),

		ConflictMarker: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		ConflictOurs:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("153")),
		ConflictTheirs: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("229")),

		SyntaxStyle: "github",
	}
}

// NoColor returns a theme that renders plain text.
func NoColor() Theme {
	return Theme{
		FileHeader:  lipgloss.NewStyle(),
		HunkHeader:  lipgloss.NewStyle(),
		LineNo:      lipgloss.NewStyle(),
		Context:     lipgloss.NewStyle(),
		Added:       lipgloss.NewStyle(),
		Removed:     lipgloss.NewStyle(),
		AddedEmph:   lipgloss.NewStyle(),
		RemovedEmph: lipgloss.NewStyle(),
		Cursor:      lipgloss.NewStyle(),
		Selected:    lipgloss.NewStyle(),
		Error:       lipgloss.NewStyle(),

		ConflictMarker: lipgloss.NewStyle(),
		ConflictOurs:   lipgloss.NewStyle(),
		ConflictTheirs: lipgloss.NewStyle(),
	}
}

// ForName returns the named built-in theme: "light" or "dark" (the default).
func ForName(name string) Theme {
	if name == "light" {
		return Light()
	}
	return Dark()
}
