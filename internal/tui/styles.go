package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/docdash/docdash/internal/backend"
)

// Indigo accent for the DOCDASH branding.
const accentIndigo = "#6366F1"

// DOCDASH ASCII art banner (filled block style).
var bannerArt = []string{
	"██████╗  ██████╗  ██████╗██████╗  █████╗ ███████╗██╗  ██╗",
	"██╔══██╗██╔═══██╗██╔════╝██╔══██╗██╔══██╗██╔════╝██║  ██║",
	"██║  ██║██║   ██║██║     ██║  ██║███████║███████╗███████║",
	"██║  ██║██║   ██║██║     ██║  ██║██╔══██║╚════██║██╔══██║",
	"██████╔╝╚██████╔╝╚██████╗██████╔╝██║  ██║███████║██║  ██║",
	"╚═════╝  ╚═════╝  ╚═════╝╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝",
}

// Styles contains all lipgloss styles for the dashboard.
type Styles struct {
	Banner    lipgloss.Style
	TabActive lipgloss.Style
	TabIdle   lipgloss.Style
	Title     lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Info      lipgloss.Style
	Error     lipgloss.Style
	Badge     lipgloss.Style // Base badge; recolored per status
	Flash     lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
	Prompt    lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentIndigo)),
		TabActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentIndigo)).Underline(true),
		TabIdle:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Info:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Badge:     lipgloss.NewStyle().Bold(true),
		Flash:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
	}
}

// RenderBanner returns the DOCDASH ASCII art as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range bannerArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips are shown under the banner before the first search.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Type at least 3 characters to search; results follow as you type",
	"  • Tab / Shift+Tab or 1-8 switch views",
	"  • Paste a Google Docs URL in the Import view to ingest a document",
	"  • Ctrl+C cancels a running stream, Ctrl+D exits",
}

// RenderWelcomeTips returns the styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.StatusBar.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// StatusBadge renders a job/review status with a per-status color.
func (s Styles) StatusBadge(status string) string {
	var color string
	switch status {
	case backend.StatusCompleted:
		color = "42" // green
	case backend.StatusFailed:
		color = "196" // red
	case backend.StatusProcessing:
		color = "214" // orange
	default:
		color = "245" // gray (pending, unknown)
	}
	return s.Badge.Foreground(lipgloss.Color(color)).Render(status)
}
