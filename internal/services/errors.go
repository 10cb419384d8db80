package services

import "fmt"

// BackendError is a non-success HTTP answer from a third-party API.
type BackendError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend returned %d: %s", e.Service, e.StatusCode, e.Body)
}
