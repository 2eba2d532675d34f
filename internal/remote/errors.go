package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a structured failure returned by the sync authority. The
// engine cares about exactly one distinction: 403-class ownership failures
// versus everything else.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsForbidden reports whether err is a 403-class ownership failure: the
// remote entity belongs to a different principal than the current session.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}
