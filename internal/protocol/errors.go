package protocol

import (
	"errors"
	"fmt"
)

// Kind is a stable error category. Callers branch on Kind, not on messages.
type Kind string

const (
	KindMalformedFrame         Kind = "MalformedFrame"
	KindUnknownTypeKind        Kind = "UnknownTypeKind"
	KindUnknownPrimitiveName   Kind = "UnknownPrimitiveName"
	KindUndefinedTypeReference Kind = "UndefinedTypeReference"
	KindDuplicateTypeID        Kind = "DuplicateTypeId"
	KindUnionTagOutOfRange     Kind = "UnionTagOutOfRange"
	KindEnumIndexOutOfRange    Kind = "EnumIndexOutOfRange"
	KindServerReported         Kind = "ServerReportedError"
	KindTransport              Kind = "TransportError"
	KindUnsupported            Kind = "Unsupported"
)

// Error is the decoder's structured error.
//
// Line is the 1-based input line of the frame that failed, or 0 when the
// error was raised outside a stream. Detail holds the server's own error kind
// for KindServerReported when the envelope provides one.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Line    int
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Cause != nil && msg == "" {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("zjson: line %d: %s: %s", e.Line, e.Kind, msg)
	}
	return fmt.Sprintf("zjson: %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ServerError builds the error surfaced for an in-stream error frame.
func ServerError(message, detail string) error {
	return &Error{Kind: KindServerReported, Message: message, Detail: detail}
}

// AtLine stamps the line number on a structured error that has none yet.
// Errors that are not *Error are wrapped as MalformedFrame.
func AtLine(err error, line int) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Kind: KindMalformedFrame, Line: line, Cause: err}
	}
	if e.Line != 0 {
		return err
	}
	stamped := *e
	stamped.Line = line
	return &stamped
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
