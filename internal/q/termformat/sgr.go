package termformat

// SGR (Select Graphic Rendition) sequences used when rendering diffs.
const (
	ANSIReset    = "\x1b[0m"
	ANSIBold     = "\x1b[1m"
	ANSIInvert   = "\x1b[7m"
	ANSIUninvert = "\x1b[27m"
	ANSIRed      = "\x1b[31m"
	ANSIGreen    = "\x1b[32m"
	ANSIYellow   = "\x1b[33m"
	ANSICyan     = "\x1b[36m"

	// Reverse-video label styles for file banners.
	ANSIGreenReverse  = "\x1b[32;7m"
	ANSIYellowReverse = "\x1b[33;7m"
	ANSIRedReverse    = "\x1b[31;7m"
)
