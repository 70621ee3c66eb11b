package usecase

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrUpstream              = crerr.New("upstream request failed")
	ErrPersistence           = crerr.New("persistence failure")
)

// UpstreamError describes a failed provider call. StatusCode is 0 for transport failures.
type UpstreamError struct {
	Op          string
	StatusCode  int
	RateLimited bool
	Err         error
}

func NewUpstreamError(op string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{
		Op:          op,
		StatusCode:  statusCode,
		RateLimited: statusCode == http.StatusTooManyRequests,
		Err:         err,
	}
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("upstream ")
	b.WriteString(e.Op)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.RateLimited {
		b.WriteString(" rate_limited")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// IsRateLimited reports whether err carries an upstream rate-limit signal.
func IsRateLimited(err error) bool {
	var upstream *UpstreamError
	if stderrors.As(err, &upstream) {
		return upstream.RateLimited
	}
	return false
}
