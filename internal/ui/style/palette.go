// internal/ui/style/palette.go
package style

import "github.com/charmbracelet/lipgloss"

// Terminal color scheme shared by every dashboard component.
var (
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")
	Blue    = lipgloss.Color("#3B82F6")

	Base03 = lipgloss.Color("#1B1D23") // darkest background
	Base02 = lipgloss.Color("#262831") // panel background
	Base01 = lipgloss.Color("#6C7280") // muted text
	Base1  = lipgloss.Color("#B4BCC8") // secondary text
	Base2  = lipgloss.Color("#ECEFF4") // primary text
)

// Palette groups the scheme into semantic roles.
type Palette struct {
	Primary       lipgloss.Color
	Accent        lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Info          lipgloss.Color
	Text          lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color
	Background    lipgloss.Color
	BackgroundAlt lipgloss.Color
}

// DefaultPalette returns the standard dashboard palette.
func DefaultPalette() Palette {
	return Palette{
		Primary:       Cyan,
		Accent:        Magenta,
		Success:       Green,
		Warning:       Yellow,
		Error:         Red,
		Info:          Blue,
		Text:          Base2,
		TextSecondary: Base1,
		TextMuted:     Base01,
		Background:    Base03,
		BackgroundAlt: Base02,
	}
}
