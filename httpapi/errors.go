package httpapi

import (
	"errors"
	"fmt"
)

var (
	ErrBaseURLInvalid   = errors.New("the api base url must be an absolute http or https url")
	ErrUnexpectedStatus = errors.New("the api responded with an unexpected status")
)

// StatusError reports a non 2xx response
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
