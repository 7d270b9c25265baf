// Package output renders runbook progress, recaps and console replies for
// an operator's terminal.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Status is the outcome of a task as shown to the operator.
type Status int

const (
	StatusOK Status = iota
	StatusChanged
	StatusSkipped
	StatusFailed
	StatusIgnored
)

var statusNames = [...]string{"ok", "changed", "skipped", "failed", "ignored"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type badge struct {
	icon  string
	label string
	color lipgloss.Color
}

// Colours are ANSI palette indexes so the terminal theme decides the shade.
var badges = map[Status]badge{
	StatusOK:      {icon: "✓", label: "ok", color: "2"},
	StatusChanged: {icon: "✓", label: "changed", color: "3"},
	StatusSkipped: {icon: "○", label: "skipped", color: "6"},
	StatusFailed:  {icon: "✗", label: "FAILED", color: "1"},
	StatusIgnored: {icon: "✗", label: "ignored", color: "5"},
}

const (
	colorFaint lipgloss.Color = "8"
	colorInfo  lipgloss.Color = "4"
	colorWarn  lipgloss.Color = "3"
	colorError lipgloss.Color = "1"
)

// Task is one rendered task line.
type Task struct {
	Name     string
	Module   string
	Endpoint string
	Status   Status
	Note     string // short qualifier, e.g. "dry run"
	Message  string
	Output   string
}

// Stats is the recap a run reports when it ends.
type Stats interface {
	GetOK() int
	GetChanged() int
	GetFailed() int
	GetSkipped() int
	GetDuration() time.Duration
}

// Output writes human-readable progress to a terminal or buffer.
type Output struct {
	w     io.Writer
	r     *lipgloss.Renderer
	debug bool
}

// New returns an Output writing to w. Colour follows the terminal behind w
// until SetColor overrides it.
func New(w io.Writer) *Output {
	return &Output{w: w, r: lipgloss.NewRenderer(w)}
}

// SetColor forces ANSI colour on or off.
func (o *Output) SetColor(enabled bool) {
	if enabled {
		o.r.SetColorProfile(termenv.ANSI)
		return
	}
	o.r.SetColorProfile(termenv.Ascii)
}

// SetDebug shows task details and raw console output.
func (o *Output) SetDebug(enabled bool) {
	o.debug = enabled
}

func (o *Output) paint(c lipgloss.Color, s string) string {
	return o.r.NewStyle().Foreground(c).Render(s)
}

func (o *Output) bold(s string) string {
	return o.r.NewStyle().Bold(true).Render(s)
}

// Runbook prints the banner for a runbook file.
func (o *Output) Runbook(path string) {
	o.printf("\n%s %s\n", o.bold("RUNBOOK"), path)
}

// Play prints the banner for a play and the console it targets.
func (o *Output) Play(name, endpoint string) {
	o.printf("\n%s %s %s\n", o.bold("PLAY"), name, o.paint(colorFaint, "("+endpoint+")"))
}

// Section prints a header such as the handler block.
func (o *Output) Section(name string) {
	o.printf("\n%s\n", o.bold(name))
}

// Task prints one task line. Failures always carry their message; debug
// mode adds the module, the endpoint and the console output.
func (o *Output) Task(t Task) {
	b, ok := badges[t.Status]
	if !ok {
		b = badge{icon: "?", label: t.Status.String(), color: colorFaint}
	}
	failed := t.Status == StatusFailed || t.Status == StatusIgnored

	line := "  " + o.paint(b.color, b.icon) + " " + t.Name
	if t.Note != "" {
		line += " " + o.paint(colorFaint, "("+t.Note+")")
	}
	if o.debug {
		if t.Module != "" {
			line += " " + o.paint(colorFaint, "["+t.Module+"]")
		}
		if t.Endpoint != "" {
			line += " " + o.paint(colorFaint, t.Endpoint)
		}
	}
	if failed || o.debug {
		line += " " + o.paint(b.color, b.label)
	}
	o.printf("%s\n", line)

	if t.Message != "" && (failed || o.debug) {
		o.printf("    %s %s\n", o.paint(colorFaint, "→"), t.Message)
	}
	if o.debug {
		if out := strings.TrimSpace(t.Output); out != "" {
			for _, l := range strings.Split(out, "\n") {
				o.printf("    %s %s\n", o.paint(colorFaint, "│"), strings.TrimRight(l, "\r"))
			}
		}
	}
}

// Recap prints the counters of a finished run.
func (o *Output) Recap(stats Stats) {
	counts := []string{
		o.paint(badges[StatusOK].color, fmt.Sprintf("ok=%d", stats.GetOK())),
		o.paint(badges[StatusChanged].color, fmt.Sprintf("changed=%d", stats.GetChanged())),
		o.paint(badges[StatusFailed].color, fmt.Sprintf("failed=%d", stats.GetFailed())),
		o.paint(badges[StatusSkipped].color, fmt.Sprintf("skipped=%d", stats.GetSkipped())),
	}
	elapsed := fmt.Sprintf("(%.2fs)", stats.GetDuration().Seconds())
	o.printf("\n%s %s %s\n", o.bold("RECAP"), strings.Join(counts, " "), o.paint(colorFaint, elapsed))
}

// Reply prints a console reply as received, ending it with one newline.
func (o *Output) Reply(text string) {
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return
	}
	o.printf("%s\n", text)
}

// Facts prints gathered facts sorted by key with the values aligned.
func (o *Output) Facts(facts map[string]any) {
	keys := make([]string, 0, len(facts))
	width := 0
	for k := range facts {
		keys = append(keys, k)
		width = max(width, len(k)+1)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.printf("%s %v\n", o.paint(colorInfo, fmt.Sprintf("%-*s", width, k+":")), facts[k])
	}
}

// Info prints an informational message.
func (o *Output) Info(format string, args ...any) {
	o.message(colorInfo, "INFO", format, args...)
}

// Warn prints a warning.
func (o *Output) Warn(format string, args ...any) {
	o.message(colorWarn, "WARN", format, args...)
}

// Error prints an error.
func (o *Output) Error(format string, args ...any) {
	o.message(colorError, "ERROR", format, args...)
}

// Debug prints a message in debug mode only.
func (o *Output) Debug(format string, args ...any) {
	if o.debug {
		o.message(colorFaint, "DEBUG", format, args...)
	}
}

func (o *Output) message(c lipgloss.Color, tag, format string, args ...any) {
	o.printf("%s %s\n", o.paint(c, tag), fmt.Sprintf(format, args...))
}

func (o *Output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}
