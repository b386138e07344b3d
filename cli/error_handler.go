package cli

import (
	"fmt"
	"io"
	"os"

	swerrors "github.com/grovetools/swarmstat/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints err with a hint chosen by its code and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintf(h.Out, "Error: %v\n", err)
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(h.Out, hint)
	}

	if h.Verbose {
		if se, ok := err.(*swerrors.SwarmError); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", se.ToJSON())
		}
	}
	return err
}

// Hint returns a one-line suggestion for a coded error, or "".
func Hint(err error) string {
	switch swerrors.GetCode(err) {
	case swerrors.ErrCodeConfigNotFound:
		return "Create swarmstat.yml or pass --config. Run 'swarmstat config show' to see the defaults."
	case swerrors.ErrCodeConfigInvalid, swerrors.ErrCodeValidationFailed:
		return "Run 'swarmstat config validate' for details."
	case swerrors.ErrCodeProjectNotFound:
		return "Run 'swarmstat projects' to see available projects."
	case swerrors.ErrCodeSessionNotFound:
		return "Run 'swarmstat sessions <project>' to see available sessions."
	case swerrors.ErrCodeStoreUnavailable:
		return "Check storage.root in swarmstat.yml, or run 'swarmstat paths'."
	case swerrors.ErrCodeArtifactsNotFound:
		return "Point swarm at a project directory containing .opencode/."
	case swerrors.ErrCodeForbiddenPath:
		return "Only files below a .opencode directory can be read."
	}
	return ""
}
