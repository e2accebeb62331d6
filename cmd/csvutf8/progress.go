package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/JonMunkholm/csvutf8/internal/core"
)

// progressPrinter renders core.Progress events as status lines. Byte
// progress is drawn in place only on a terminal.
type progressPrinter struct {
	w           io.Writer
	quiet       bool
	interactive bool
	inline      bool // a \r line is on screen
}

func newProgressPrinter(w io.Writer, quiet bool) *progressPrinter {
	p := &progressPrinter{w: w, quiet: quiet}
	if f, ok := w.(*os.File); ok {
		p.interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *progressPrinter) handle(ev core.Progress) {
	if p.quiet {
		return
	}

	switch ev.Phase {
	case core.PhaseDetecting:
		colorFaint.Fprintln(p.w, "Detecting encoding...")
	case core.PhaseDetected:
		if ev.Encoding != "" {
			colorCyan.Fprintf(p.w, "Detected %s\n", ev.Encoding)
		} else {
			colorYellow.Fprintln(p.w, "No confident guess, using fallbacks")
		}
	case core.PhaseCandidates:
		colorFaint.Fprintf(p.w, "Candidates: %s\n", strings.Join(ev.Candidates, ", "))
	case core.PhaseTrying:
		if ev.BytesRead == 0 {
			p.endInline()
			fmt.Fprintf(p.w, "Trying %s (%d/%d)\n", ev.Encoding, ev.Attempt, ev.Total)
			return
		}
		if p.interactive && ev.Size > 0 {
			fmt.Fprintf(p.w, "\r  read %3d%%", ev.Percent())
			p.inline = true
		}
	case core.PhaseCandidateFailed:
		p.endInline()
		colorYellow.Fprintf(p.w, "  %s failed: %v\n", ev.Encoding, ev.Err)
	case core.PhaseSucceeded:
		p.endInline()
		colorGreen.Fprintf(p.w, "  %s works\n", ev.Encoding)
	case core.PhaseExhausted:
		p.endInline()
	case core.PhaseWriting:
		colorFaint.Fprintln(p.w, "Writing UTF-8 output...")
	}
}

// finish terminates a pending in-place line.
func (p *progressPrinter) finish() {
	p.endInline()
}

func (p *progressPrinter) endInline() {
	if p.inline {
		fmt.Fprintln(p.w)
		p.inline = false
	}
}
