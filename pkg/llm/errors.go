package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindRateLimited   ErrorKind = "rate_limited"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindTimeout       ErrorKind = "timeout"
	KindOther         ErrorKind = "other"
	KindParseError    ErrorKind = "parse_error"
)

var ErrUnavailable = errors.New("completion service not configured")

type CompletionError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s request failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func (e *CompletionError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTimeout
}

// KindOf reports the kind of a failed completion or embedding call. Errors
// that were never classified report KindOther, or KindTimeout when a deadline
// is in their chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if isTimeout(err) {
		return KindTimeout
	}
	return KindOther
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func kindFromStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimited
	case status == 408 || status == 504:
		return KindTimeout
	default:
		return KindOther
	}
}

// wrap classifies err with classify unless it is already a CompletionError.
func wrap(provider string, err error, classify func(error) ErrorKind) error {
	if err == nil {
		return nil
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return err
	}
	kind := KindOther
	if isTimeout(err) {
		kind = KindTimeout
	} else if classify != nil {
		kind = classify(err)
	}
	return &CompletionError{Provider: provider, Kind: kind, Err: err}
}
