package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrNetwork       = errors.New("network error")
	ErrHTTPStatus    = errors.New("http status error")
	ErrParse         = errors.New("parse error")
	ErrCancelled     = errors.New("cancelled")
	ErrStorageLoad   = errors.New("storage load error")
	ErrStorageSave   = errors.New("storage save error")
)

// Outcome labels reported for batch items.
const (
	OutcomeFetchFailed = "fetch_failed"
	OutcomeCancelled   = "cancelled"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above; both the marker and err match with errors.Is.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a per-item error to the outcome label recorded for it.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case IsCancelled(err):
		return OutcomeCancelled
	default:
		return OutcomeFetchFailed
	}
}

// IsCancelled reports whether err represents a caller-requested abort.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
