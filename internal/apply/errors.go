package apply

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrUnsupportedFormat  = errors.New("unsupported format")
)

// InvalidInstructionError carries the requested range and the real file length.
type InvalidInstructionError struct {
	Start int
	End   int
	Lines int
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("Invalid line numbers: %d to %d. File has %d lines.", e.Start, e.End, e.Lines)
}

func (e *InvalidInstructionError) Is(target error) bool { return target == ErrInvalidInstruction }

// UnsupportedFormatError means pasted code looks like a unified diff and the
// caller must choose between lossy extraction and leaving the file alone.
type UnsupportedFormatError struct {
	AddedLines int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("This appears to be a diff/patch format (%d added lines). Extract the added lines as the new file content, or keep the file unchanged.", e.AddedLines)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }
