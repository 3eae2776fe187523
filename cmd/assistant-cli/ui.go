package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/healthdesk/assistant/internal/retrieval"
)

// UI provides user-friendly output utilities. In JSON mode every method is silent so
// that stdout carries only machine-readable output.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	jsonMode bool
}

// NewUI creates a new UI instance.
func NewUI(out, errOut io.Writer, jsonMode, noColor bool) *UI {
	return &UI{
		out:      out,
		errOut:   errOut,
		noColor:  noColor || !isTerminal(out),
		jsonMode: jsonMode,
	}
}

func (ui *UI) print(w io.Writer, attr color.Attribute, symbol, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	line := fmt.Sprintf("%s %s\n", symbol, fmt.Sprintf(format, args...))
	if ui.noColor {
		fmt.Fprint(w, line)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	c.Fprint(w, line)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.print(ui.out, color.FgGreen, "✓", format, args...)
}

// Error prints an error message to the error stream.
func (ui *UI) Error(format string, args ...interface{}) {
	ui.print(ui.errOut, color.FgRed, "✗", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.print(ui.out, color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.print(ui.out, color.FgCyan, "ℹ", format, args...)
}

// Step prints a step message.
func (ui *UI) Step(format string, args ...interface{}) {
	ui.print(ui.out, color.FgBlue, "→", format, args...)
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	header := fmt.Sprintf("━━━ %s ━━━", strings.ToUpper(title))
	if ui.noColor {
		fmt.Fprintf(ui.out, "\n%s\n\n", header)
		return
	}
	c := color.New(color.FgMagenta, color.Bold)
	c.EnableColor()
	c.Fprintf(ui.out, "\n%s\n\n", header)
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Fprintf(ui.out, "  %s: %v\n", key, value)
		return
	}
	c := color.New(color.FgYellow)
	c.EnableColor()
	c.Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// Table prints rows under headers with padded columns.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	line := func(cells []string) string {
		var b strings.Builder
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
			}
		}
		return b.String()
	}

	head := line(headers)
	if ui.noColor {
		fmt.Fprintln(ui.out, head)
	} else {
		c := color.New(color.FgCyan, color.Bold)
		c.EnableColor()
		c.Fprintln(ui.out, head)
	}
	for _, row := range rows {
		fmt.Fprintln(ui.out, line(row))
	}
}

// Answer renders a resolution for humans.
func (ui *UI) Answer(res retrieval.Resolution) {
	if ui.jsonMode {
		return
	}

	fmt.Fprintln(ui.out, res.Response.Text)
	if len(res.Response.Anchors) > 0 {
		ui.KeyValue("Pages", strings.Join(res.Response.Anchors, ", "))
	}
	if res.Response.Confidence != nil {
		ui.KeyValue("Confidence", fmt.Sprintf("%.0f%%", *res.Response.Confidence*100))
	}
	if res.Hedged {
		ui.Warning("Low confidence match, please check the suggested topic")
	}
}

// Newline prints a newline.
func (ui *UI) Newline() {
	if !ui.jsonMode {
		fmt.Fprintln(ui.out)
	}
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a spinner writing to the error stream. It is inert unless that
// stream is a terminal and JSON mode is off.
func (ui *UI) NewSpinner(message string) *Spinner {
	if ui.jsonMode || !isTerminal(ui.errOut) {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(ui.errOut))
	s.Suffix = " " + message
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s.spinner != nil {
		s.spinner.Start()
	}
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
}

// NewProgressBar creates a progress bar on the error stream. It renders nothing in
// JSON mode.
func (ui *UI) NewProgressBar(total int, description string) *progressbar.ProgressBar {
	w := ui.errOut
	if ui.jsonMode {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("queries"),
		progressbar.OptionEnableColorCodes(!ui.noColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 1 {
		return s
	}
	return string(r[:n-1]) + "…"
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
