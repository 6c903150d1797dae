package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/jgardner/reviewflow/internal/domain"
)

// IsOutputTerminal reports whether stdout is a TTY. Progress is rendered
// in place on a terminal and as plain lines when piped or in CI.
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ProgressPrinter renders session progress events.
type ProgressPrinter struct {
	w     io.Writer
	isTTY bool
	dirty bool
}

// NewProgressPrinter constructs a printer for the given writer.
func NewProgressPrinter(w io.Writer, isTTY bool) *ProgressPrinter {
	return &ProgressPrinter{w: w, isTTY: isTTY}
}

// Print renders one progress event. Satisfies the session progress
// subscriber signature.
func (p *ProgressPrinter) Print(event domain.ProgressEvent) {
	switch event.Phase {
	case domain.PhaseFetching:
		p.line("fetching files...")
	case domain.PhaseAnalyzing:
		if event.CurrentFile == "" {
			p.line(fmt.Sprintf("analyzing %d files", event.TotalFiles))
			return
		}
		p.status(fmt.Sprintf("[%d/%d] %s", event.ProcessedFiles+1, event.TotalFiles, event.CurrentFile))
	case domain.PhaseCompleted:
		p.line(fmt.Sprintf("done: %d files analyzed", event.ProcessedFiles))
	case domain.PhaseFailed:
		p.line(fmt.Sprintf("failed: %s", event.ErrorMessage))
	}
}

// line finishes any in-place status and writes a full line.
func (p *ProgressPrinter) line(text string) {
	if p.isTTY && p.dirty {
		fmt.Fprint(p.w, "\r\033[K")
		p.dirty = false
	}
	fmt.Fprintln(p.w, text)
}

// status rewrites the current terminal line, or appends when not a TTY.
func (p *ProgressPrinter) status(text string) {
	if p.isTTY {
		fmt.Fprintf(p.w, "\r\033[K%s", text)
		p.dirty = true
		return
	}
	fmt.Fprintln(p.w, text)
}
