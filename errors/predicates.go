package errors

import (
	"errors"
	"net"
	"strings"

	rfhttp "github.com/randalmurphal/reviewflow/http"
)

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) || rfhttp.IsUnauthorized(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unauthenticated") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid_auth")
}

// IsPermissionError checks if an error is permission-related.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) || rfhttp.IsForbidden(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "not_in_channel")
}

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors, timeouts, and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionFailed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused", "no such host", "network is unreachable", "dial tcp",
		"certificate", "x509", "tls handshake", "timeout", "deadline exceeded",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// IsConfigError checks if an error is a missing-configuration error.
func IsConfigError(err error) bool {
	return err != nil && errors.Is(err, ErrNotConfigured)
}
