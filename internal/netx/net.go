// Package netx holds small networking helpers shared by the providers.
package netx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"
)

// IsNetworkError reports whether err is a transport failure (dial, reset,
// timeout, truncated response) as opposed to a rejection by the remote
// side. Context cancellation is not a network error.
func IsNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
