// Package report prints scenario progress to a terminal.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

// Printer writes one line per step and a summary per run. It implements
// scenario.Recorder.
type Printer struct {
	out     io.Writer
	verbose bool

	ok, fail, skip, bold, dim func(a ...any) string
}

// NewPrinter creates a Printer. With verbose set, multi-line details are
// printed in full instead of only their first line.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{
		out:     out,
		verbose: verbose,
		ok:      color.New(color.FgGreen, color.Bold).SprintFunc(),
		fail:    color.New(color.FgRed, color.Bold).SprintFunc(),
		skip:    color.New(color.FgYellow).SprintFunc(),
		bold:    color.New(color.FgCyan, color.Bold).SprintFunc(),
		dim:     color.New(color.Faint).SprintFunc(),
	}
}

// RunStarted implements scenario.Recorder.
func (p *Printer) RunStarted(_ context.Context, run *scenario.Run) {
	fmt.Fprintf(p.out, "%s %s\n", p.bold("▶ "+run.Scenario), p.dim("run "+run.ID))
}

// StepFinished implements scenario.Recorder.
func (p *Printer) StepFinished(_ context.Context, _ *scenario.Run, step scenario.StepResult) {
	var label string
	switch step.Status {
	case scenario.StatusSucceeded:
		label = p.ok("OK  ")
	case scenario.StatusFailed:
		label = p.fail("FAIL")
	default:
		label = p.skip("SKIP")
	}

	line := fmt.Sprintf("  %s %s", label, step.Name)
	if d := step.Duration(); d > 0 {
		line += p.dim(fmt.Sprintf(" (%s)", d.Round(time.Millisecond)))
	}
	fmt.Fprintln(p.out, line)

	if step.Detail != "" {
		p.printIndented(step.Detail)
	}
	if step.Error != "" {
		p.printIndented(p.fail("error: ") + step.Error)
	}
}

func (p *Printer) printIndented(text string) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if !p.verbose && len(lines) > 1 {
		lines = append(lines[:1], p.dim(fmt.Sprintf("... %d more line(s), use -v", len(lines)-1)))
	}
	for _, l := range lines {
		fmt.Fprintf(p.out, "       %s\n", l)
	}
}

// RunFinished implements scenario.Recorder.
func (p *Printer) RunFinished(_ context.Context, run *scenario.Run) {
	succeeded, failed, skipped := run.Counts()
	status := p.ok(strings.ToUpper(string(run.Status)))
	if run.Status != scenario.StatusSucceeded {
		status = p.fail(strings.ToUpper(string(run.Status)))
	}
	fmt.Fprintf(p.out, "%s %s: %d succeeded, %d failed, %d skipped in %s\n\n",
		status, run.Scenario, succeeded, failed, skipped, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
}

// PrintScenarios lists the registered scenarios.
func PrintScenarios(out io.Writer, reg *scenario.Registry) {
	bold := color.New(color.Bold).SprintFunc()
	width := 0
	defs := reg.List()
	for _, d := range defs {
		width = max(width, len(d.Name))
	}
	for _, d := range defs {
		fmt.Fprintf(out, "  %s  %s\n", bold(fmt.Sprintf("%-*s", width, d.Name)), d.Description)
	}
}
