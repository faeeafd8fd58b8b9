package errors

import (
	"context"
	"errors"
)

// internalMessage is what callers see for anything that is not a domain error.
const internalMessage = "internal server error"

// Classify maps any error to the kind and message exposed to clients.
// Domain errors keep their own kind and message. Everything else is
// reported as an internal error with a fixed message so causes never leak.
// A nil error classifies as an empty kind and message.
func Classify(err error) (Kind, string) {
	if err == nil {
		return "", ""
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		if domainErr.Kind == KindInternal {
			return KindInternal, internalMessage
		}
		return domainErr.Kind, domainErr.Message
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindInternal, "request cancelled"
	}

	return KindInternal, internalMessage
}

// DetailsOf returns the details attached to a domain error, if any.
func DetailsOf(err error) any {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}
