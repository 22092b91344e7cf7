package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ========================================
// Brand Colors - Kartoza standard palette
// ========================================

var (
	ColorOrange   = lipgloss.Color("#DDA036") // Primary/Active
	ColorBlue     = lipgloss.Color("#569FC6") // Secondary/Links
	ColorGray     = lipgloss.Color("#9A9EA0") // Inactive/Subtle
	ColorWhite    = lipgloss.Color("#FFFFFF") // Text
	ColorDarkGray = lipgloss.Color("#3A3A3A") // Background
	ColorRed      = lipgloss.Color("#E95420") // Error
	ColorGreen    = lipgloss.Color("#4CAF50") // Success
)

// HeaderWidth is the standard width for the header
const HeaderWidth = 60

// HeaderState contains the dynamic state for the header
type HeaderState struct {
	Status    string // Running, Stopping, Finished
	Container string // Position in the batch, e.g. "2/5"
	Elapsed   string
}

// RenderHeader renders the application header with an optional status line
func RenderHeader(screenTitle string, state *HeaderState) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	mottoStyle := lipgloss.NewStyle().
		Italic(true).
		Foreground(ColorGray).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	dividerStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Width(HeaderWidth)

	title := titleStyle.Render("Kartoza Narration Tuner - " + screenTitle)
	motto := mottoStyle.Render("even out your narration")
	divider := dividerStyle.Render("────────────────────────────────────────────────────────────")

	if state == nil {
		return lipgloss.JoinVertical(lipgloss.Center, title, motto, divider)
	}

	stateColor := ColorOrange
	switch state.Status {
	case "Finished":
		stateColor = ColorGreen
	case "Stopping":
		stateColor = ColorRed
	}
	statusStyled := lipgloss.NewStyle().Foreground(stateColor).Bold(true).Render(state.Status)

	statusLine := fmt.Sprintf("Status: %s  |  Container: %s  |  Elapsed: %s",
		statusStyled,
		state.Container,
		state.Elapsed,
	)
	status := lipgloss.NewStyle().
		Foreground(ColorWhite).
		Align(lipgloss.Center).
		Width(HeaderWidth).
		Render(statusLine)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		motto,
		divider,
		status,
		divider,
	)
}

// RenderHelpFooter renders the standard help footer at the bottom of the screen
func RenderHelpFooter(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	footerStyle := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center)

	return footerStyle.Render(helpStyle.Render(helpText))
}

// LayoutWithHeaderFooter creates a standard layout with header at top and footer at bottom
func LayoutWithHeaderFooter(header, content, footer string, width, height int) string {
	mainSection := lipgloss.JoinVertical(
		lipgloss.Center,
		header,
		"",
		content,
	)

	// Leave room for the footer
	centeredMain := lipgloss.Place(
		width,
		max(height-2, 0),
		lipgloss.Center,
		lipgloss.Top,
		mainSection,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		centeredMain,
		footer,
	)
}

// Error style for error messages
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// Success style for success messages
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Bold(true)

// Label style for secondary text
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray)
