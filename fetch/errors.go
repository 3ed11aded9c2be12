package fetch

import (
	"errors"
	"fmt"
)

// ErrMaxRetries indicates the retry budget was exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// Error classifies a fetch failure. Permanent errors (4xx other than
// 429, malformed URLs) are never retried.
type Error struct {
	URL        string
	StatusCode int
	Permanent  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
