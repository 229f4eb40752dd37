package errors

import (
	stderr "errors"
	"fmt"

	"github.com/gofrs/uuid"
)

// EntryNotFoundError indicates that no analysis entry is tracked for a file.
type EntryNotFoundError struct {
	Path string
}

// Error is an implementation of the error interface.
func (n *EntryNotFoundError) Error() string {
	return fmt.Sprintf("no analysis entry for %q", n.Path)
}

// AnalysisEngineAbnormalExitError reports that an analysis engine instance terminated unexpectedly.
type AnalysisEngineAbnormalExitError struct {
	EngineID uuid.UUID
	ExitCode int
	Stderr   string
}

// Error is an implementation of the error interface.
func (n *AnalysisEngineAbnormalExitError) Error() string {
	return fmt.Sprintf("analysis engine %q exited abnormally with code %d: %s", n.EngineID, n.ExitCode, n.Stderr)
}

// AbnormalExit returns the abnormal exit details and true if an AnalysisEngineAbnormalExitError is part of the
// error chain.
func AbnormalExit(e error) (_ *AnalysisEngineAbnormalExitError, ok bool) {
	var exit *AnalysisEngineAbnormalExitError
	if !stderr.As(e, &exit) {
		return nil, false
	}
	return exit, true
}
