// Package samerr tags every error this module raises with one of the four
// kinds spec.md distinguishes, on top of github.com/grailbio/base/errors
// (the teacher's structured-error package) for message construction and
// wrapping.
package samerr

import (
	"fmt"

	baseerrors "github.com/grailbio/base/errors"
)

// Kind classifies an error for callers that need to distinguish, e.g., a
// malformed record from a missing output file.
type Kind int

const (
	// Parse marks malformed SAM text: headers, alignment lines, CIGAR
	// strings, optional fields, or QUAL bytes that don't conform.
	Parse Kind = iota
	// Config marks a bad combination of options: an unknown filter name, a
	// read group string missing a required subfield, a stream asked to sort.
	Config
	// IO marks a failure reading or writing the underlying file or stream.
	IO
	// Internal marks a violated invariant: a CAS slot observed in an
	// impossible state, a stage fed after it ended.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse error"
	case Config:
		return "config error"
	case IO:
		return "I/O error"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// Error is the concrete error type every exported function in this module
// returns or panics with on a fatal condition.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.err.Error() }
func (e *Error) Unwrap() error { return e.err }

// New builds an Error of the given kind from msg.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, err: baseerrors.New(msg)}
}

// Newf builds an Error of the given kind from a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, err: baseerrors.New(fmt.Sprintf(format, args...))}
}

// Wrap tags err with kind, attaching msg as context, the way the teacher's
// errors.E(err, "context", args...) call sites do.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: baseerrors.E(err, msg)}
}

// Is reports whether err is a samerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}

// Recover converts a panicking *Error into *errp, turning a fatal
// invariant violation raised deep in a goroutine (a worker's panic is the
// only way it can abort the batch it's processing) into a normal returned
// error the driver can log on one line and exit non-zero for. Any other
// panic value is not ours to interpret and is re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(*Error); ok {
		*errp = err
		return
	}
	panic(r)
}

