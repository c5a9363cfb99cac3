package cliui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWrap = 80

// Output wraps a writer with what is known about the terminal behind it.
// Writers that are not terminals get plain text with no spinner frames.
type Output struct {
	w       io.Writer
	tty     bool
	width   int
	profile termenv.Profile
	style   string
}

// NewOutput inspects w. Only an *os.File attached to a terminal is treated
// as interactive.
func NewOutput(w io.Writer) *Output {
	o := &Output{
		w:       w,
		width:   defaultWrap,
		profile: termenv.Ascii,
		style:   "dark",
	}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return o
	}

	o.tty = true
	te := termenv.NewOutput(f)
	o.profile = te.EnvColorProfile()
	if !te.HasDarkBackground() {
		o.style = "light"
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 && width < defaultWrap {
		o.width = width
	}
	return o
}

// Writer returns the underlying writer.
func (o *Output) Writer() io.Writer {
	return o.w
}

// Interactive reports whether the output is a color-capable terminal.
func (o *Output) Interactive() bool {
	return o.tty && o.profile != termenv.Ascii
}

// Width is the wrap width for rendered text.
func (o *Output) Width() int {
	return o.width
}

// Markdown renders content with glamour on interactive terminals and
// returns it unchanged otherwise.
func (o *Output) Markdown(content string) string {
	if !o.Interactive() {
		return content
	}
	rendered, err := RenderMarkdown(content, o.width, o.style)
	if err != nil {
		return content
	}
	return rendered
}

// Step runs fn with a spinner on interactive terminals. Elsewhere it only
// prints the final line.
func (o *Output) Step(msg string, fn func() error) error {
	if o.Interactive() {
		return Step(o.w, msg, fn)
	}
	err := fn()
	fmt.Fprintf(o.w, "  %s %s\n", plainMark(err), msg)
	return err
}

// Printf writes formatted text, stripping ANSI sequences for plain writers.
func (o *Output) Printf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if !o.Interactive() {
		s = ansi.Strip(s)
	}
	fmt.Fprint(o.w, s)
}

func plainMark(err error) string {
	if err != nil {
		return "x"
	}
	return "ok"
}

// Truncate shortens s to width cells, ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

// PadRight pads s with spaces to width cells. Escape sequences do not count
// toward the width.
func PadRight(s string, width int) string {
	if pad := width - ansi.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
