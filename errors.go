package filespacer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned when no registered codec matches the
	// input by stream header or file extension.
	ErrUnknownFormat = errors.New("no codec matched")

	// ErrInsecurePath marks an archive member whose declared path would
	// resolve outside the extraction root.
	ErrInsecurePath = errors.New("insecure member path")

	// ErrInvalidLevel is returned when a compression level is outside [1,22].
	ErrInvalidLevel = errors.New("compression level out of range")
)

// CompressionError is a whole-operation compression failure: missing
// source, codec error, or an I/O error while writing the output.
// Any partial output has already been removed when it is returned.
type CompressionError struct {
	Path string
	Err  error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("compress %s: %v", e.Path, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

// ExtractionError is a whole-operation extraction failure: missing or
// unreadable archive, or a codec error on the compression layer.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// MemberFailure records a single archive member that could not be
// extracted. Member failures never abort the surrounding operation;
// they are accumulated in the Report in encounter order.
type MemberFailure struct {
	Name string
	Err  error
}

func (f MemberFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Name, f.Err)
}

// failurePreview renders at most n member failures plus a remainder count,
// so batch operations with many small failures stay readable.
func failurePreview(failures []MemberFailure, n int) string {
	var s string
	for i, f := range failures {
		if i == n {
			s += fmt.Sprintf("  ... and %d more errors\n", len(failures)-n)
			break
		}
		s += fmt.Sprintf("  - %s\n", f.Error())
	}
	return s
}
