package server

import "strconv"

// ANSI colours for the development request log.
const (
	Red        = "\033[31m"
	Green      = "\033[32m"
	Yellow     = "\033[33m"
	Blue       = "\033[34m"
	Magenta    = "\033[35m"
	Cyan       = "\033[36m"
	Gray       = "\033[90m" // Bright black, often appears as gray
	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":     Green,
	"POST":    Blue,
	"PUT":     Cyan,
	"DELETE":  Yellow,
	"PATCH":   Magenta,
	"OPTIONS": Gray,
}

// colouredStatus highlights client and server errors.
func colouredStatus(status int) string {
	switch {
	case status >= 500:
		return Red + strconv.Itoa(status) + ResetColor
	case status >= 400:
		return Yellow + strconv.Itoa(status) + ResetColor
	}
	return strconv.Itoa(status)
}
