package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

func init() {
	color.NoColor = true
}

func TestPrinter_Run(t *testing.T) {
	var buf bytes.Buffer
	sc := &scenario.Scenario{Name: "demo", Steps: []scenario.Step{
		{Name: "List indexes", Run: func(context.Context, *scenario.State) (string, error) {
			return "2 index(es)\nhotels\nparks", nil
		}},
		{Name: "Query", Fatal: true, Run: func(context.Context, *scenario.State) (string, error) {
			return "", errors.New("HTTP 403")
		}},
		{Name: "Delete index", Run: func(context.Context, *scenario.State) (string, error) { return "", nil }},
	}}

	scenario.NewRunner(nil, time.Second, NewPrinter(&buf, false)).Run(context.Background(), sc)

	out := buf.String()
	assert.Contains(t, out, "▶ demo")
	assert.Contains(t, out, "OK   List indexes")
	assert.Contains(t, out, "2 index(es)\n")
	assert.Contains(t, out, "... 2 more line(s), use -v")
	assert.NotContains(t, out, "hotels")
	assert.Contains(t, out, "FAIL Query")
	assert.Contains(t, out, "error: HTTP 403")
	assert.Contains(t, out, "SKIP Delete index")
	assert.Contains(t, out, "FAILED demo: 1 succeeded, 1 failed, 1 skipped")
}

func TestPrinter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.StepFinished(context.Background(), nil, scenario.StepResult{Name: "Groups", Status: scenario.StatusSucceeded, Detail: "a\nb\nc"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "c", strings.TrimSpace(lines[3]))
}

func TestPrintScenarios(t *testing.T) {
	var buf bytes.Buffer
	PrintScenarios(&buf, scenario.DefaultRegistry())

	out := buf.String()
	assert.Contains(t, out, "quickstart")
	assert.Contains(t, out, "permissions-pull")
	assert.Equal(t, 9, strings.Count(out, "\n"))
}
