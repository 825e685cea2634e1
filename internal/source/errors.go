package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrAuth marks authentication or authorization failures. Permanent.
	ErrAuth = errors.New("authentication error")
	// ErrNotFound marks items the source does not know. Permanent.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures plausibly resolved by retrying.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes source and operation context
// while tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above; nil defaults to
// ErrTransient.
func Wrap(marker error, sourceName, operation, message string, err error) error {
	detail := buildDetail(sourceName, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Permanent reports whether err cannot succeed on retry with the same inputs.
func Permanent(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrNotFound)
}

// Retryable reports whether err warrants an automatic retry. Tagged transient
// errors always qualify; untagged errors are classified by shape and message
// (rate limits, timeouts, connection errors), since provider SDK errors do not
// carry our sentinels.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if Permanent(err) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	// Server errors are typically transient (outages, deploys, overload).
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	for _, token := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
		"unexpected eof",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func buildDetail(sourceName, operation, message string) string {
	parts := make([]string, 0, 3)
	if sourceName = strings.TrimSpace(sourceName); sourceName != "" {
		parts = append(parts, sourceName)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "source failure"
	}
	return strings.Join(parts, ": ")
}
