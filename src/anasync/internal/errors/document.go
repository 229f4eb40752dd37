package errors

import (
	"fmt"

	"github.com/gofrs/uuid"
	"go.lsp.dev/uri"
)

// DocumentNotFoundError indicates that a document is not open.
type DocumentNotFoundError struct {
	Document uri.URI
}

// Error is an implementation of the error interface.
func (n *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("Document %q not found", n.Document)
}

// DocumentSizeLimitError indicates that has exceeded the specified size limit
type DocumentSizeLimitError struct {
	Size int64
}

// Error is an implementation of the error interface.
func (n *DocumentSizeLimitError) Error() string {
	return fmt.Sprintf("size of %d bytes exceeds permitted limit", n.Size)
}

// VersionNotReachableError indicates that a translation was requested between versions that are no longer retained,
// or in the wrong direction.
type VersionNotReachableError struct {
	Version int
	Target  int
	Oldest  int
}

// Error is an implementation of the error interface.
func (n *VersionNotReachableError) Error() string {
	if n.Target != 0 && n.Version > n.Target {
		return fmt.Sprintf("version %d is newer than target version %d", n.Version, n.Target)
	}
	return fmt.Sprintf("version %d is no longer retained, oldest retained version is %d", n.Version, n.Oldest)
}

// MismatchedBufferError indicates that a position from one buffer was used with a translator bound to another.
type MismatchedBufferError struct {
	Expected uuid.UUID
	Actual   uuid.UUID
}

// Error is an implementation of the error interface.
func (n *MismatchedBufferError) Error() string {
	return fmt.Sprintf("position belongs to buffer %q, translator is bound to buffer %q", n.Actual, n.Expected)
}
