package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))

// SetColor enables or disables ANSI colors
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// Console prints run progress for the operator
type Console struct {
	out io.Writer
}

// NewConsole creates a console writing to w
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{out: w}
}

// PageStarted announces the page about to be fetched
func (c *Console) PageStarted(handle string, page int) {
	fmt.Fprintf(c.out, "Importing page %d\n", page)
}

// PostExported echoes what the note command printed
func (c *Console) PostExported(output string) {
	if output == "" {
		return
	}
	fmt.Fprintln(c.out, strings.TrimRight(output, "\n"))
}

// RateLimited tells the operator how large the quota is and when to rerun.
// A zero limit means the API did not report one.
func (c *Console) RateLimited(limit int, waitSeconds int64) {
	if limit > 0 {
		fmt.Fprintln(c.out, Yellow(fmt.Sprintf("You are running out of the %d requests rate limit.", limit)))
	} else {
		fmt.Fprintln(c.out, Yellow("You are running out of the requests rate limit."))
	}
	fmt.Fprintln(c.out, Yellow(fmt.Sprintf("Try again in %d seconds.", waitSeconds)))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintHighlight prints a heading in magenta
func PrintHighlight(msg string) {
	fmt.Println(Magenta(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}
