package tui

import "github.com/zhaksylykov/wistep/internal/session"

// Color constants for the wistep TUI theme
const (
	// Base Colors
	ColorAppBackground  = ""        // Use terminal default background
	ColorCardBackground = "#10141C" // Dark steel
	ColorBorder         = "#39404F" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E8ECF4" // Primary text (labels, titles, input)
	ColorSecondaryText = "#A9B2C3" // Secondary text
	ColorDisabledText  = "#667085" // Disabled/muted text
	ColorPlaceholder   = "#A9B2C3" // Input placeholders
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors (industrial amber theme)
	ColorAccentMain   = "#D97706" // Accent elements, active borders
	ColorAccentBright = "#FBBF24" // Highlights, current step

	// State Colors
	ColorError   = "#EF4444" // Errors, rejected reviews, overruns
	ColorSuccess = "#22C55E" // Completed steps, approvals
	ColorWarning = "#F59E0B" // Warnings, skipped steps
	ColorInfo    = "#60A5FA" // Running timers, in-progress markers
)

// statusColor maps a step status to its display color.
func statusColor(s session.StepStatus) string {
	switch s {
	case session.StepInProgress:
		return ColorInfo
	case session.StepCompleted:
		return ColorSuccess
	case session.StepSkipped:
		return ColorWarning
	default:
		return ColorSecondaryText
	}
}
