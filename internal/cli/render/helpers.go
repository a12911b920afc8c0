package render

import (
	"github.com/fatih/color"
)

var (
	labelColor = color.New(color.FgCyan)
	valueColor = color.New(color.FgWhite, color.Bold)
	modeColors = map[string]*color.Color{
		"SUDO":    color.New(color.FgRed, color.Bold),
		"PLUGIN":  color.New(color.FgGreen, color.Bold),
		"ENABLE":  color.New(color.FgYellow, color.Bold),
		"DEFAULT": color.New(color.FgGreen, color.Bold),
	}
)

func label(s string) string {
	return labelColor.Sprint(s)
}

func mode(s string) string {
	if c, ok := modeColors[s]; ok {
		return c.Sprint(s)
	}
	return s
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}
