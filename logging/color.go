package logging

import "os"

// Palette holds ANSI escape sequences. The zero value prints no colors.
type Palette struct {
	Reset   string
	Bold    string
	Dim     string
	Red     string
	Green   string
	Yellow  string
	Blue    string
	Magenta string
	Cyan    string
	White   string
}

func NewPalette(enabled bool) Palette {
	if !enabled {
		return Palette{}
	}
	return Palette{
		Reset:   "\033[0m",
		Bold:    "\033[1m",
		Dim:     "\033[2m",
		Red:     "\033[31m",
		Green:   "\033[32m",
		Yellow:  "\033[33m",
		Blue:    "\033[34m",
		Magenta: "\033[35m",
		Cyan:    "\033[36m",
		White:   "\033[37m",
	}
}

// ColorsDisabledByEnv reports whether NO_COLOR or a Railway deployment
// marker is present.
func ColorsDisabledByEnv() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("RAILWAY_ENVIRONMENT") != ""
}
