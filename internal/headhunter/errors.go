package headhunter

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("client is not authenticated")
	ErrUnauthorized     = errors.New("request unauthorized after token refresh")
	ErrUnexpectedBody   = errors.New("response body is not a JSON object")
)

// HTTPError is returned for any non-2xx answer from hh.ru.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status: %d", e.StatusCode)
	}
	return fmt.Sprintf("bad status: %d: %s", e.StatusCode, e.Body)
}
