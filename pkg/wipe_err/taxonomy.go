// pkg/wipe_err/taxonomy.go

package wipe_err

import (
	"errors"
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// Failure reasons. These strings are written into attestation metadata and
// must stay stable.
const (
	ReasonNotFound           = "NotFound"
	ReasonIoFailure          = "IoFailure"
	ReasonBusy               = "Busy"
	ReasonDeleteFailed       = "DeleteFailed"
	ReasonKeyLoadError       = "KeyLoadError"
	ReasonSigningUnavailable = "SigningUnavailable"
	ReasonSerializationError = "SerializationError"
)

var (
	ErrNotFound           = errors.New("target not found")
	ErrIoFailure          = errors.New("overwrite pass failed")
	ErrBusy               = errors.New("target is held open by another process")
	ErrDeleteFailed       = errors.New("overwritten target could not be removed")
	ErrKeyLoad            = errors.New("signing key could not be loaded")
	ErrSigningUnavailable = errors.New("signing unavailable")
	ErrSerialization      = errors.New("record cannot be canonicalized")
)

// NotFound marks err as a missing-target failure. It is an expected user
// error: nothing was modified.
func NotFound(path string, err error) error {
	if err == nil {
		err = fmt.Errorf("%s: no such regular file", path)
	}
	return NewExpectedError(cerr.WithHint(
		cerr.Mark(cerr.Wrapf(err, "target %s", path), ErrNotFound),
		"Check the path; nothing was modified"))
}

// IoFailure marks err as a failed write, flush, or open during erasure.
func IoFailure(err error, format string, args ...interface{}) error {
	return cerr.Mark(cerr.Wrapf(err, format, args...), ErrIoFailure)
}

// Busy marks err as a lock conflict on the target. A Busy error is also an
// IoFailure.
func Busy(path string, err error) error {
	return cerr.WithHint(
		cerr.Mark(cerr.Mark(cerr.Wrapf(err, "lock %s", path), ErrIoFailure), ErrBusy),
		"Close any program holding the file open and retry")
}

// DeleteFailed marks err as a removal failure after a completed overwrite.
func DeleteFailed(path string, err error) error {
	return cerr.Mark(cerr.Wrapf(err, "remove %s", path), ErrDeleteFailed)
}

// KeyLoad marks err as an unreadable or corrupt key file. Callers must not
// regenerate a key in response.
func KeyLoad(path string, err error) error {
	return cerr.WithHint(
		cerr.Mark(cerr.Wrapf(err, "load key %s", path), ErrKeyLoad),
		"Restore the key file from backup or move it aside explicitly; it is never regenerated automatically")
}

// SigningUnavailable marks a report that could not be signed.
func SigningUnavailable(reason string) error {
	return cerr.Mark(cerr.Newf("signing unavailable: %s", reason), ErrSigningUnavailable)
}

// Serialization reports a canonicalization failure. The record field set is
// closed, so this is a programming error.
func Serialization(err error) error {
	return cerr.Mark(cerr.NewAssertionErrorWithWrappedErrf(err, "canonical encoding failed"), ErrSerialization)
}

// Reason maps err to its stable failure reason, or "" when unclassified.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case cerr.Is(err, ErrNotFound):
		return ReasonNotFound
	case cerr.Is(err, ErrBusy):
		return ReasonBusy
	case cerr.Is(err, ErrIoFailure):
		return ReasonIoFailure
	case cerr.Is(err, ErrDeleteFailed):
		return ReasonDeleteFailed
	case cerr.Is(err, ErrKeyLoad):
		return ReasonKeyLoadError
	case cerr.Is(err, ErrSigningUnavailable):
		return ReasonSigningUnavailable
	case cerr.Is(err, ErrSerialization):
		return ReasonSerializationError
	default:
		return ""
	}
}
