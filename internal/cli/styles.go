// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette is the set of colors a theme provides.
type Palette struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
	Subtle  lipgloss.Color
	Border  lipgloss.Color
}

// Themes known to ApplyTheme.
var (
	LightPalette = Palette{
		Primary: lipgloss.Color("#2E7D32"),
		Success: lipgloss.Color("#00897B"),
		Warning: lipgloss.Color("#EF6C00"),
		Error:   lipgloss.Color("#C62828"),
		Info:    lipgloss.Color("#1565C0"),
		Subtle:  lipgloss.Color("#757575"),
		Border:  lipgloss.Color("#BDBDBD"),
	}
	DarkPalette = Palette{
		Primary: lipgloss.Color("#81C784"),
		Success: lipgloss.Color("#4ECDC4"),
		Warning: lipgloss.Color("#FFE66D"),
		Error:   lipgloss.Color("#FF6B6B"),
		Info:    lipgloss.Color("#95E1D3"),
		Subtle:  lipgloss.Color("#666666"),
		Border:  lipgloss.Color("#333333"),
	}
)

var (
	// TitleStyle is used for section titles.
	TitleStyle lipgloss.Style
	// SubtleStyle formats less prominent text.
	SubtleStyle lipgloss.Style
	// SuccessStyle formats success messages.
	SuccessStyle lipgloss.Style
	// WarningStyle formats warning messages.
	WarningStyle lipgloss.Style
	// ErrorStyle formats error messages.
	ErrorStyle lipgloss.Style
	// InfoStyle formats informational messages.
	InfoStyle lipgloss.Style
	// IncomeStyle colors positive amounts.
	IncomeStyle lipgloss.Style
	// ExpenseStyle colors negative amounts.
	ExpenseStyle lipgloss.Style
	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	boxStyle    lipgloss.Style
	borderStyle lipgloss.Style
	palette     Palette
)

func init() {
	ApplyTheme("light")
}

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ChartIcon   = "📊"
	CoinIcon    = "💰"
)

// ApplyTheme switches every style to the named palette. Unknown names use light.
func ApplyTheme(name string) {
	palette = LightPalette
	if strings.EqualFold(strings.TrimSpace(name), "dark") {
		palette = DarkPalette
	}

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(palette.Primary).MarginBottom(1)
	SubtleStyle = lipgloss.NewStyle().Foreground(palette.Subtle)
	SuccessStyle = lipgloss.NewStyle().Foreground(palette.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(palette.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(palette.Error)
	InfoStyle = lipgloss.NewStyle().Foreground(palette.Info)
	IncomeStyle = lipgloss.NewStyle().Foreground(palette.Success)
	ExpenseStyle = lipgloss.NewStyle().Foreground(palette.Error)
	boxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(palette.Border).
		Padding(1, 2)
	borderStyle = lipgloss.NewStyle().Foreground(palette.Border)
}

// CurrentPalette returns the active palette.
func CurrentPalette() Palette {
	return palette
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(CoinIcon + " " + title)
}

// FormatAmount colors an already formatted amount by its sign.
func FormatAmount(formatted string, negative bool) string {
	if negative {
		return ExpenseStyle.Render(formatted)
	}
	return IncomeStyle.Render(formatted)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}

// RenderTable lays out rows under a bold header.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return BoldStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.String()
}
