package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// NoAnalyzerConnectionError reports that a request was made before an analysis engine connection was established.
	NoAnalyzerConnectionError = New("analyzer is not connected")
	// EntryDisposedError reports that an analysis entry was used after it was disposed.
	EntryDisposedError = New("analysis entry is disposed")
)

// IsContractViolation reports whether the error indicates a programming error by the caller,
// which should be surfaced rather than recovered from.
func IsContractViolation(e error) bool {
	var mismatched *MismatchedBufferError
	return stderr.As(e, &mismatched) || stderr.Is(e, EntryDisposedError)
}
