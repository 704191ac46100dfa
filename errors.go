package fpack

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBadMagic is returned by Decode when the first byte is not Magic.
	ErrBadMagic = errors.New("fpack: bad magic byte")

	// ErrTruncated is returned by Decode when the buffer ends before a
	// required field (terminator, fixed-width integer, or declared content
	// length) can be fully read.
	ErrTruncated = errors.New("fpack: truncated input")
)

// ClockError reports a time source that produced a pre-epoch instant during
// fresh construction.
type ClockError struct {
	At time.Time
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("fpack: clock before epoch: %v", e.At)
}

// DropError reports a Drop where the revision bump and/or the store delete
// failed.
type DropError struct {
	Name    string
	BumpErr error
	DelErr  error
}

func (e *DropError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("drop %q failed: rev bump and delete failed: bump=%v; delete=%v",
			e.Name, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("drop %q: rev bump failed: %v", e.Name, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("drop %q: delete failed: %v", e.Name, e.DelErr)
	default:
		return fmt.Sprintf("drop %q: unknown error", e.Name)
	}
}

func (e *DropError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
