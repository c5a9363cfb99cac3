// Package cliui holds the terminal presentation shared by toolbox commands:
// the color palette, status marks, a step spinner, and glamour rendering of
// tool output.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

// spinner redraws a single status line until stopped.
type spinner struct {
	w      io.Writer
	msg    string
	frames []string
	style  lipgloss.Style

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func newSpinner(w io.Writer, msg string) *spinner {
	return &spinner{
		w:      w,
		msg:    msg,
		frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
		style:  lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		done:   make(chan struct{}),
	}
}

func (s *spinner) start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r  %s %s", s.style.Render(s.frames[frame%len(s.frames)]), s.msg)
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// stop halts the animation and overwrites the line with the outcome.
func (s *spinner) stop(err error, elapsed time.Duration) {
	close(s.done)
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r  %s %s %s\n", Mark(err), s.msg, StepStyle.Render("("+FormatDuration(elapsed)+")"))
}

// Step animates a spinner on w while fn runs, then prints ✓ or ✗ with the
// elapsed time. Output.Step only calls it for interactive terminals.
func Step(w io.Writer, msg string, fn func() error) error {
	s := newSpinner(w, msg)
	s.start()

	start := time.Now()
	err := fn()
	s.stop(err, time.Since(start))
	return err
}

// Mark returns ✓ for a nil error and ✗ otherwise.
func Mark(err error) string {
	return MarkBool(err == nil)
}

func MarkBool(ok bool) string {
	if ok {
		return SuccessMark
	}
	return FailMark
}

// FormatDuration renders d as "12ms", "3.2s", or "2m05s".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// RenderMarkdown renders tool output with the named glamour style ("dark"
// or "light") wrapped at wrap cells. On error content comes back unrendered.
func RenderMarkdown(content string, wrap int, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
