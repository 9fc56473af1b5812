package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// BenchTheme recolors the default Fyne theme toward the dashboard's
// pass/fail semantics: green for a completed run, red for a timed-out
// one, plus fixed primary (blue) and warning (orange) colors and fixed
// padding and input-border sizes. Everything else is left to the platform
// default.
type BenchTheme struct {
	fyne.Theme
}

// NewBenchTheme wraps the platform default theme.
func NewBenchTheme() *BenchTheme {
	return &BenchTheme{Theme: theme.DefaultTheme()}
}

func (t *BenchTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.RGBA{R: 0, G: 102, B: 204, A: 255}
	case theme.ColorNameSuccess:
		return color.RGBA{R: 0, G: 153, B: 0, A: 255}
	case theme.ColorNameWarning:
		return color.RGBA{R: 255, G: 153, B: 0, A: 255}
	case theme.ColorNameError:
		return color.RGBA{R: 204, G: 0, B: 0, A: 255}
	default:
		return t.Theme.Color(name, variant)
	}
}

func (t *BenchTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 8
	case theme.SizeNameInputBorder:
		return 1
	default:
		return t.Theme.Size(name)
	}
}
