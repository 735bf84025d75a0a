package cli

import "os"

// IsNonInteractive reports whether the process must not prompt or take
// over the terminal: --non-interactive, CRADLE_NON_INTERACTIVE, or no TTY.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("CRADLE_NON_INTERACTIVE"); ok {
		return true
	}
	return !hasTTY()
}
