package slack

import (
	"fmt"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

const maxBlockTextLength = 2900

var statusEmoji = map[scenario.Status]string{
	scenario.StatusSucceeded: ":white_check_mark:",
	scenario.StatusFailed:    ":x:",
	scenario.StatusSkipped:   ":no_entry_sign:",
	scenario.StatusRunning:   ":arrows_counterclockwise:",
}

func runURL(runID, baseURL string) string {
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/v1/runs/%s", strings.TrimRight(baseURL, "/"), runID)
}

func section(text string) goslack.Block {
	return goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
		nil, nil,
	)
}

// StartedText is the plain-text fallback of the start notification.
func StartedText(run *scenario.Run) string {
	return fmt.Sprintf("Scenario %s started (run %s)", run.Scenario, run.ID)
}

// BuildStartedMessage creates Block Kit blocks for a run start notification.
func BuildStartedMessage(run *scenario.Run) []goslack.Block {
	text := fmt.Sprintf("%s *%s* started\nRun `%s`", statusEmoji[scenario.StatusRunning], run.Scenario, run.ID)
	return []goslack.Block{section(text)}
}

// FinishedText is the plain-text fallback of the result notification.
func FinishedText(run *scenario.Run) string {
	succeeded, failed, skipped := run.Counts()
	return fmt.Sprintf("Scenario %s %s: %d succeeded, %d failed, %d skipped",
		run.Scenario, run.Status, succeeded, failed, skipped)
}

// BuildFinishedMessage creates Block Kit blocks for a finished run: a summary
// line, the failed steps with their errors, and a link to the run when
// baseURL is set.
func BuildFinishedMessage(run *scenario.Run, baseURL string) []goslack.Block {
	emoji := statusEmoji[run.Status]
	if emoji == "" {
		emoji = ":question:"
	}
	succeeded, failed, skipped := run.Counts()
	header := fmt.Sprintf("%s *%s* %s in %s\n%d succeeded, %d failed, %d skipped",
		emoji, run.Scenario, run.Status, run.FinishedAt.Sub(run.StartedAt).Round(100*time.Millisecond),
		succeeded, failed, skipped)
	blocks := []goslack.Block{section(header)}

	var failures []string
	for _, step := range run.Steps {
		if step.Status == scenario.StatusFailed {
			failures = append(failures, fmt.Sprintf("*%s*\n%s", step.Name, step.Error))
		}
	}
	if len(failures) > 0 {
		blocks = append(blocks, section(truncateForSlack(strings.Join(failures, "\n\n"))))
	}

	if url := runURL(run.ID, baseURL); url != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Run", false, false))
		btn.URL = url
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}
	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated, see the run for details)_"
}
