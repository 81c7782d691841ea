package fatal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Exit terminates the process. Tests replace it.
var Exit = os.Exit

// Report logs err through logger and terminates the process with the status
// ExitCode assigns to it. Usage errors have already printed their text, so
// they only get a debug line.
func Report(logger zerolog.Logger, err error) {
	if err == nil {
		Exit(ExitOK)
		return
	}

	code := CodeOf(err)
	if code == CodeUsage {
		logger.Debug().Err(err).Msg("Usage error")
	} else {
		ev := logger.Error().Str("kind", string(code))
		var fe *Error
		if errors.As(err, &fe) && len(fe.Details) > 0 {
			ev = ev.Fields(fe.Details)
		}
		ev.Msg(err.Error())
	}
	Exit(ExitCode(err))
}

// Crash is the escalation path for a recovered fault. It avoids the logging
// machinery entirely: one unbuffered write to w, then exit.
func Crash(w io.Writer, recovered interface{}) {
	fmt.Fprintf(w, "%v: %v\n", ErrInternalCrash, recovered)
	Exit(ExitFailure)
}
