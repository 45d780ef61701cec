// Package rosbagerr defines the error taxonomy shared by every layer of
// rosbags: the definition parser, the type registry, the wire codecs, the
// two container formats, and the converter. Each kind is a sentinel value
// that callers can match with errors.Is; the concrete *Error carries the
// contextual message and, for parse errors, a source location.
package rosbagerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which row of the error taxonomy an Error belongs to.
type Kind string

// The error kinds from the error handling design.
const (
	KindParseError         Kind = "ParseError"
	KindTypeConflict       Kind = "TypeConflict"
	KindNotFound           Kind = "NotFound"
	KindShortRead          Kind = "ShortRead"
	KindExcessBytes        Kind = "ExcessBytes"
	KindBadLength          Kind = "BadLength"
	KindUnindexed          Kind = "Unindexed"
	KindSplitNotSupported  Kind = "SplitNotSupported"
	KindCorruptRecord      Kind = "CorruptRecord"
	KindMetadataInvalid    Kind = "MetadataInvalid"
	KindVersionUnsupported Kind = "VersionUnsupported"
	KindStorageError       Kind = "StorageError"
	KindUnknownType        Kind = "UnknownType"
	KindIO                 Kind = "IoError"
)

// Error is the concrete type behind every sentinel below. Use errors.Is
// against the package-level sentinels (ErrParse, ErrNotFound, ...) to test
// the kind; the message carries the specifics.
type Error struct {
	Kind Kind
	Msg  string
	// Location is set for ParseError and is otherwise empty.
	Location string
	cause    error
}

func (e *Error) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Location, e.Msg)
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is allows errors.Is(err, ErrNotFound) to succeed against any *Error of
// the same Kind, regardless of message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinels usable with errors.Is. Their Msg is empty; construction
// functions below produce the populated errors actually returned.
var (
	ErrParse              = &Error{Kind: KindParseError}
	ErrTypeConflict       = &Error{Kind: KindTypeConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrShortRead          = &Error{Kind: KindShortRead}
	ErrExcessBytes        = &Error{Kind: KindExcessBytes}
	ErrBadLength          = &Error{Kind: KindBadLength}
	ErrUnindexed          = &Error{Kind: KindUnindexed}
	ErrSplitNotSupported  = &Error{Kind: KindSplitNotSupported}
	ErrCorruptRecord      = &Error{Kind: KindCorruptRecord}
	ErrMetadataInvalid    = &Error{Kind: KindMetadataInvalid}
	ErrVersionUnsupported = &Error{Kind: KindVersionUnsupported}
	ErrStorageError       = &Error{Kind: KindStorageError}
	ErrUnknownType        = &Error{Kind: KindUnknownType}
	ErrIO                 = &Error{Kind: KindIO}
)

// Parse builds a ParseError at the given location (e.g. "line 4").
func Parse(location, format string, args ...interface{}) error {
	return &Error{Kind: KindParseError, Msg: fmt.Sprintf(format, args...), Location: location}
}

// TypeConflict builds a TypeConflict error for the named type.
func TypeConflict(name string) error {
	return &Error{Kind: KindTypeConflict, Msg: fmt.Sprintf("conflicting re-registration of %q", name)}
}

// NotFound builds a NotFound error for the named type.
func NotFound(name string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("type %q is not registered", name)}
}

// ShortRead builds a ShortRead error.
func ShortRead(format string, args ...interface{}) error {
	return &Error{Kind: KindShortRead, Msg: fmt.Sprintf(format, args...)}
}

// ExcessBytes builds an ExcessBytes error.
func ExcessBytes(format string, args ...interface{}) error {
	return &Error{Kind: KindExcessBytes, Msg: fmt.Sprintf(format, args...)}
}

// BadLength builds a BadLength error.
func BadLength(format string, args ...interface{}) error {
	return &Error{Kind: KindBadLength, Msg: fmt.Sprintf(format, args...)}
}

// Unindexed builds an Unindexed error.
func Unindexed(path string) error {
	return &Error{Kind: KindUnindexed, Msg: fmt.Sprintf("%s has no index region (index_pos == 0)", path)}
}

// SplitNotSupported builds a SplitNotSupported error.
func SplitNotSupported(path string) error {
	return &Error{Kind: KindSplitNotSupported, Msg: fmt.Sprintf("%s is a split bag", path)}
}

// CorruptRecord builds a CorruptRecord error.
func CorruptRecord(format string, args ...interface{}) error {
	return &Error{Kind: KindCorruptRecord, Msg: fmt.Sprintf(format, args...)}
}

// MetadataInvalid builds a MetadataInvalid error.
func MetadataInvalid(format string, args ...interface{}) error {
	return &Error{Kind: KindMetadataInvalid, Msg: fmt.Sprintf(format, args...)}
}

// VersionUnsupported builds a VersionUnsupported error.
func VersionUnsupported(version int) error {
	return &Error{Kind: KindVersionUnsupported, Msg: fmt.Sprintf("metadata version %d is not supported", version)}
}

// StorageError builds a StorageError, wrapping the underlying sqlite/file error.
func StorageError(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindStorageError, Msg: fmt.Sprintf(format, args...), cause: cause}
}

// UnknownType builds an UnknownType error for the converter.
func UnknownType(name string) error {
	return &Error{Kind: KindUnknownType, Msg: fmt.Sprintf("type %q cannot be resolved", name)}
}

// IO wraps an underlying filesystem error, propagating it verbatim via
// errors.Unwrap while tagging it with the IoError kind.
func IO(cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindIO, Msg: cause.Error(), cause: cause}
}

// Wrap attaches additional context to cause while preserving its kind if
// it is already one of ours; otherwise it behaves like errors.Wrap.
func Wrap(cause error, format string, args ...interface{}) error {
	return errors.Wrapf(cause, format, args...)
}
