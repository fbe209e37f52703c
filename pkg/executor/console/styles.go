package console

import "github.com/charmbracelet/lipgloss"

// Color Palette
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // brand accent
	mintGreen   = lipgloss.Color("#A8E6CF") // success
	skyBlue     = lipgloss.Color("#A0C4FF") // info and tool actions
	butterCream = lipgloss.Color("#FDFFB6") // steps and warnings
	errorRed    = lipgloss.Color("#FF6B6B")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

// styles are bound to one renderer so color output follows the writer,
// not the process's stdout.
type styles struct {
	brand   lipgloss.Style
	muted   lipgloss.Style
	step    lipgloss.Style
	text    lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style

	bannerBox lipgloss.Style
	answerBox lipgloss.Style
	errorBox  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		brand:   r.NewStyle().Foreground(salmonPink).Bold(true),
		muted:   r.NewStyle().Foreground(mutedGray),
		step:    r.NewStyle().Foreground(butterCream).Bold(true),
		text:    r.NewStyle().Foreground(brightWhite),
		info:    r.NewStyle().Foreground(skyBlue),
		warning: r.NewStyle().Foreground(butterCream),
		success: r.NewStyle().Foreground(mintGreen).Bold(true),
		err:     r.NewStyle().Foreground(errorRed).Bold(true),

		bannerBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 2),

		answerBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mintGreen).
			Padding(1, 2),

		errorBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorRed).
			Padding(0, 1),
	}
}
