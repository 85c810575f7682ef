// Package errs defines the error values shared by the dataless packages.
//
// Every fatal condition raised while parsing or assembling a volume is one of
// the sentinel values below, wrapped in a positional error (LineError or
// BlocketteError) so callers can both classify the failure with errors.Is and
// report exactly where it happened.
package errs

import (
	"errors"
	"fmt"
)

// Parse phase errors.
var (
	// ErrMalformedKey is returned when a record key does not parse into a
	// blockette number and a field specification (e.g. "B052F03" or "B053F10-13").
	ErrMalformedKey = errors.New("malformed blockette field key")

	// ErrRangeArity is returned when a range field line carries a token count that
	// matches neither the field span nor the field span plus a leading index.
	ErrRangeArity = errors.New("range field token count mismatch")

	// ErrBoundaryRetry is returned when a freshly created blockette declines the
	// field that forced its creation. It indicates a broken boundary rule table.
	ErrBoundaryRetry = errors.New("new blockette declined its opening field")
)

// Assemble phase errors.
var (
	ErrDuplicateVolumeInfo = errors.New("duplicate volume-info blockette")
	ErrMissingContext      = errors.New("blockette has no enclosing station, channel or epoch")
	ErrDuplicateStation    = errors.New("duplicate station")
	ErrMissingField        = errors.New("blockette is missing a required field")
	ErrInvalidFieldValue   = errors.New("invalid blockette field value")
)

// ErrInvalidTimestamp is returned by the epoch codec for unparsable timestamps.
var ErrInvalidTimestamp = errors.New("invalid timestamp format")

// Source and storage errors.
var (
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	ErrCorruptArchive         = errors.New("corrupt compressed data")
	ErrDecodedTooLarge        = errors.New("decompressed size exceeds limit")

	// ErrAlreadyLoaded reports that an identical source was loaded before.
	// It is informational: the store is left unchanged.
	ErrAlreadyLoaded = errors.New("volume source already loaded")

	ErrVolumeNotFound = errors.New("volume not found")

	ErrInvalidSourceName = errors.New("invalid source name")
	ErrSourceTracked     = errors.New("source name already tracked")
)

// LineError attaches the input position to a parse phase error.
type LineError struct {
	Line int    // 1-based line number in the input sequence
	Text string // trimmed line content
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d [%s]: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// BlocketteError attaches the blockette position to an assemble phase error.
type BlocketteError struct {
	Index  int // 0-based position in the parsed blockette sequence
	Number int // blockette type number
	Err    error
}

func (e *BlocketteError) Error() string {
	return fmt.Sprintf("blockette #%d (B%03d): %v", e.Index, e.Number, e.Err)
}

func (e *BlocketteError) Unwrap() error {
	return e.Err
}
