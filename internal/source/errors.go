package source

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/ecorank/backend/pkg/httputil"
)

var (
	// ErrTransport covers network failures and non-2xx statuses
	ErrTransport = errors.New("upstream unreachable")

	// ErrShape covers bodies that are not JSON or lack the expected keys
	ErrShape = errors.New("unexpected upstream response")
)

// FetchError is returned by every Client method.
// errors.Is matches both Kind and the underlying error.
type FetchError struct {
	Op   string
	Kind error
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsNotFound reports whether the upstream answered 404
func IsNotFound(err error) bool {
	var statusErr *httputil.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
