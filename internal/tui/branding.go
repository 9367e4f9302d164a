package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/blogr/internal/theme"
)

const AppName = "blogr"

// ASCII art logo lines for blogr
var LogoLines = []string{
	"██▄▄▄  ██      ▄████▄  ▄████▄ ██▄▄▄",
	"██  ██ ██     ██    ██ ██     ██  ██",
	"██▀▀▄▄ ██     ██    ██ ██ ▀██ ██▀▀▄ ",
	"██  ██ ██     ██    ██ ██  ██ ██  ██",
	"██▀▀▀  ██████  ▀████▀  ▀████▀ ██  ██",
}

const CompactLogo = `blogr ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#10B981"),
	lipgloss.Color("#34D399"),
	lipgloss.Color("#6EE7B7"),
	lipgloss.Color("#2DD4BF"),
	lipgloss.Color("#10B981"),
}

// Palette is one colour scheme of the client.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Highlight  lipgloss.Color
	HighText   lipgloss.Color
	Warn       lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
}

var DarkPalette = Palette{
	Primary:    lipgloss.Color("#34D399"),
	Secondary:  lipgloss.Color("#2DD4BF"),
	Accent:     lipgloss.Color("#6EE7B7"),
	Background: lipgloss.Color("#0F172A"),
	Surface:    lipgloss.Color("#1E293B"),
	Text:       lipgloss.Color("#E2E8F0"),
	Muted:      lipgloss.Color("#94A3B8"),
	Highlight:  lipgloss.Color("#854D0E"),
	HighText:   lipgloss.Color("#FDE047"),
	Warn:       lipgloss.Color("#FACC15"),
	Error:      lipgloss.Color("#F87171"),
	Success:    lipgloss.Color("#34D399"),
}

var LightPalette = Palette{
	Primary:    lipgloss.Color("#059669"),
	Secondary:  lipgloss.Color("#0F766E"),
	Accent:     lipgloss.Color("#10B981"),
	Background: lipgloss.Color("#F8FAFC"),
	Surface:    lipgloss.Color("#E2E8F0"),
	Text:       lipgloss.Color("#1E293B"),
	Muted:      lipgloss.Color("#64748B"),
	Highlight:  lipgloss.Color("#FEF08A"),
	HighText:   lipgloss.Color("#713F12"),
	Warn:       lipgloss.Color("#B45309"),
	Error:      lipgloss.Color("#DC2626"),
	Success:    lipgloss.Color("#059669"),
}

// Active colors. applyPalette swaps them when the theme changes.
var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	AccentColor    lipgloss.Color

	BackgroundColor lipgloss.Color
	SurfaceColor    lipgloss.Color
	TextColor       lipgloss.Color
	MutedColor      lipgloss.Color

	HighlightColor     lipgloss.Color
	HighlightTextColor lipgloss.Color
	WarnColor          lipgloss.Color
	ErrorColor         lipgloss.Color
	SuccessColor       lipgloss.Color
)

// Styled components
var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	BadgeStyle         lipgloss.Style
	HighlightStyle     lipgloss.Style
	HelpStyle          lipgloss.Style
	TimeStyle          lipgloss.Style
	ModalTextStyle     lipgloss.Style
	ModalTitleStyle    lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

var activeMode = theme.Light

func init() {
	applyPalette(theme.Light)
}

func paletteFor(mode theme.Mode) Palette {
	if mode == theme.Dark {
		return DarkPalette
	}
	return LightPalette
}

// applyPalette installs the colors for mode and rebuilds every style.
func applyPalette(mode theme.Mode) {
	p := paletteFor(mode)
	activeMode = mode

	PrimaryColor = p.Primary
	SecondaryColor = p.Secondary
	AccentColor = p.Accent
	BackgroundColor = p.Background
	SurfaceColor = p.Surface
	TextColor = p.Text
	MutedColor = p.Muted
	HighlightColor = p.Highlight
	HighlightTextColor = p.HighText
	WarnColor = p.Warn
	ErrorColor = p.Error
	SuccessColor = p.Success

	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true).
		Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().
		Foreground(HighlightTextColor).
		Background(HighlightColor)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	TimeStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	ModalTextStyle = lipgloss.NewStyle().
		Foreground(TextColor)

	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(WarnColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

func GetWelcomeMessage(modifier string) string {
	return GetCompactBanner(fmt.Sprintf("No posts yet • press %sn to write the first one", modifier))
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

func ShowBanner(version string) {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)
	lines[len(LogoLines)] = ""

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("    Terminal Blog Client %s", versionTag))
	} else {
		lines = append(lines, "    Terminal Blog Client")
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}

		colorIdx := i % len(BannerColors)
		style := lipgloss.NewStyle().
			Foreground(BannerColors[colorIdx]).
			Bold(i < len(LogoLines))

		coloredLines = append(coloredLines, style.Render(line))
	}

	borderChars := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	borderStyle := lipgloss.NewStyle().
		Border(borderChars).
		BorderForeground(lipgloss.Color("#2DD4BF")).
		Padding(1, 3).
		MarginTop(1)

	banner := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)
	output := borderStyle.Render(banner)

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(output))

	separator := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6EE7B7")).
		Render("◆ ◇ ◆ ◇ ◆")

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render(separator))
}
