package runs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Quidge/actrun/internal/state"
)

// FormatAmbiguousPrefixError formats an AmbiguousPrefixError into a helpful
// error message that lists every matching run.
func FormatAmbiguousPrefixError(err *state.AmbiguousPrefixError) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ambiguous run ID %q: matches %d runs\n", err.Prefix, len(err.Matches)))
	sb.WriteString("\nMatching runs:\n")

	for _, run := range err.Matches {
		sb.WriteString(fmt.Sprintf("  %s  %-8s  %s\n",
			state.ShortID(run.ID), run.Status, run.StartedAt.Local().Format("2006-01-02 15:04:05")))
	}

	sb.WriteString("\nHint: use a longer prefix")

	return fmt.Errorf("%s", sb.String())
}

// lookupError turns a GetRunByPrefix error into a message for the user.
func lookupError(prefix string, err error) error {
	var ambiguous *state.AmbiguousPrefixError
	switch {
	case errors.As(err, &ambiguous):
		return FormatAmbiguousPrefixError(ambiguous)
	case errors.Is(err, state.ErrRunNotFound):
		return fmt.Errorf("run %q not found", prefix)
	case errors.Is(err, state.ErrInvalidPrefix):
		return fmt.Errorf("invalid run ID %q: must contain only hexadecimal characters", prefix)
	default:
		return fmt.Errorf("failed to get run: %w", err)
	}
}
