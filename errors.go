package libemit

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrNilListener      = errors.New("listener must not be nil")
	ErrEmitterClosed    = errors.New("emitter has been closed")
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("program exit")
	ErrRateLimit        = errors.New("rate limit exceeded")
)

// ErrDial carries the target of a failed websocket dial.
type ErrDial struct {
	err error
	url string
}

func (e ErrDial) Error() string {
	return fmt.Sprintf("dial error: %s to %s", e.err, e.url)
}

func (e ErrDial) Unwrap() error { return e.err }

func wrapErrDial(err error, u string) error {
	if err == nil {
		return nil
	}
	if parsed, perr := url.Parse(u); perr == nil {
		// never leak credentials into logs
		parsed.User = nil
		u = parsed.String()
	}
	return ErrDial{err: err, url: u}
}
