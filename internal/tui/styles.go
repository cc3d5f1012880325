package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Base styles for the configure wizard
var (
	// Header style for titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// Label style for form field labels
	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	// Success style for positive feedback
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// Error style for error messages
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Warning style for warnings
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Muted style for secondary text
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
                                        _ _
 ___  ___   __ _ _ __  ___  ___ _ __(_) |__   ___
/ __|/ _ \ / _' | '_ \/ __|/ __| '__| | '_ \ / _ \
\__ \ (_) | (_| | |_) \__ \ (__| |  | | |_) |  __/
|___/\___/ \__,_| .__/|___/\___|_|  |_|_.__/ \___|
                |_|                               `

// Logo returns the soapscribe ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
