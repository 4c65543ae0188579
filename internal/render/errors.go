package render

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Kind discriminates collaborator failures for HTTP mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindTimeout
)

// Error codes carried alongside the kind. Kept stable because remote
// renderers report them in response bodies.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeInternal   = "RENDER_ERROR"
)

// Error is the tagged failure produced at the renderer adapter edge.
//
// MessageKey is the optional localization key reported by the renderer;
// handlers substitute their own default when it is empty.
type Error struct {
	Kind       Kind
	Code       string
	MessageKey string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "render error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewValidationError reports a submission the renderer rejected. The message
// is surfaced to clients verbatim.
func NewValidationError(message, messageKey string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, MessageKey: messageKey}
}

// NewTimeoutError reports a render that exceeded its deadline.
func NewTimeoutError(message, messageKey string) *Error {
	return &Error{Kind: KindTimeout, Code: CodeTimeout, Message: message, MessageKey: messageKey}
}

// NewInternalError reports any other renderer failure, wrapping the cause.
func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Err: cause}
}

var timeoutMessagePattern = regexp.MustCompile(`(?i)timeout`)

// KindOf classifies err for response mapping. Explicit tags win, then a
// deadline anywhere in the chain, then a case-insensitive "timeout" match on
// the message text (untagged transport errors).
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var rerr *Error
	if errors.As(err, &rerr) && rerr != nil {
		switch {
		case rerr.Kind == KindValidation || rerr.Code == CodeValidation:
			return KindValidation
		case rerr.Kind == KindTimeout || rerr.Code == CodeTimeout:
			return KindTimeout
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if timeoutMessagePattern.MatchString(err.Error()) {
		return KindTimeout
	}
	return KindInternal
}

// AsError unwraps err to the tagged variant when one is present.
func AsError(err error) (*Error, bool) {
	var rerr *Error
	if errors.As(err, &rerr) && rerr != nil {
		return rerr, true
	}
	return nil, false
}

// MessageKeyOf returns the collaborator-supplied localization key, or
// fallback when the error carries none.
func MessageKeyOf(err error, fallback string) string {
	if rerr, ok := AsError(err); ok && rerr.MessageKey != "" {
		return rerr.MessageKey
	}
	return fallback
}
