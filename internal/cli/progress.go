package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// progressOut receives progress lines. Stdout stays clean for output.
var progressOut io.Writer = os.Stderr

type progressStep struct {
	started time.Time
}

// startProgress prints label and returns a step to complete, or nil when
// progress output is disabled. A nil step is safe to use.
func startProgress(label string) *progressStep {
	if !progressEnabled() {
		return nil
	}
	fmt.Fprintf(progressOut, "%s... ", label)
	return &progressStep{started: time.Now()}
}

func (p *progressStep) Done() {
	if p == nil {
		return
	}
	fmt.Fprintf(progressOut, "ok (%s)\n", formatDuration(time.Since(p.started)))
}

func (p *progressStep) Fail(err error) {
	if p == nil {
		return
	}
	if err != nil {
		fmt.Fprintf(progressOut, "failed: %v\n", err)
		return
	}
	fmt.Fprintln(progressOut, "failed")
}

func progressEnabled() bool {
	if noProgress || IsJSONOutput() || IsJSONLOutput() || IsNonInteractive() {
		return false
	}
	for _, key := range []string{"CRADLE_NO_PROGRESS", "NO_PROGRESS"} {
		if _, ok := os.LookupEnv(key); ok {
			return false
		}
	}
	return true
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d < time.Hour:
		return d.Round(time.Second).String()
	default:
		return d.Round(time.Minute).String()
	}
}
