package ui

import "github.com/charmbracelet/lipgloss"

// ASCII art for the cinesync header as a single string to preserve exact
// formatting
const cinesyncASCII = `            ██
  ██████    ██  ██████████    ██████    ██████  ████  ████  ██████      ██████
████████  ████  ████  ████  ████████  ████████  ████  ████  ████  ████  ████████
████        ██  ████  ████  ████      ██████      ██████    ████  ████  ████
████████    ██  ████  ████  ████████  ████████  ████████    ████  ████  ████████
  ██████    ██  ████  ████    ██████  ████████    ██████    ████  ████    ██████
                                                      ████
                                                ██████                          `

// FormatASCIIHeader renders the cinesync ASCII header in the theme color.
// Render as single block to preserve spacing and structure
func FormatASCIIHeader() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(ReelAmber).
		Bold(true)

	return headerStyle.Render(cinesyncASCII)
}

// FormatASCIIHeaderWithSubtext renders header with subtitle
func FormatASCIIHeaderWithSubtext(subtext string) string {
	header := FormatASCIIHeader()

	subtitle := lipgloss.NewStyle().
		Foreground(ReelMuted).
		Render(subtext)

	return header + "\n\n" + subtitle
}
