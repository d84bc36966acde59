package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/fleetcal/internal/constants"
	"github.com/julianstephens/fleetcal/internal/logger"
)

// hints are printed under classified errors to point at the usual fix.
var hints = map[Kind]string{
	FetchFailed:  "run '" + constants.AppName + " doctor' to check the database connection",
	NotFound:     "the service was changed in another session; list services again",
	Unauthorized: "set " + constants.EnvAccessKey + " or unlock the session with the access key",
}

// Format renders err for the terminal. Classified errors read as
// "Error: <op> <kind>: <reason>" followed by a hint for kinds that have one.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return "Error: " + err.Error()
	}

	// A wrapped *Error keeps the context its callers added.
	msg := "Error: " + err.Error()
	if error(e) == err {
		msg = "Error: " + e.Kind.String()
		if e.Op != "" {
			msg = "Error: " + e.Op + " " + e.Kind.String()
		}
		if e.Err != nil {
			msg += ": " + e.Reason()
		}
	}
	if hint, ok := hints[e.Kind]; ok {
		msg += "\nHint: " + hint
	}
	return msg
}

// Formatf is Format for an ad hoc message.
func Formatf(format string, args ...interface{}) string {
	return "Error: " + fmt.Sprintf(format, args...)
}

// Fatal prints err and exits with status 1. A nil err is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err, "kind", KindOf(err))
	fmt.Fprintln(os.Stderr, Format(err))
	os.Exit(1)
}

// Fatalf prints a formatted message and exits with status 1.
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintln(os.Stderr, Formatf(format, args...))
	os.Exit(1)
}
