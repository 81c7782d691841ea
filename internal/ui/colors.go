package ui

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan  = "\033[36m"
	ColorGreen = "\033[32m"
	ColorWhite = "\033[97m"
	ColorRed   = "\033[31m"
)

// Heading styles a section title in usage output.
func Heading(s string) string {
	return ColorBold + ColorWhite + s + ColorReset
}

// Error styles an error line.
func Error(s string) string {
	return ColorRed + s + ColorReset
}
