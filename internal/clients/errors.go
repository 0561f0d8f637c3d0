package clients

import "fmt"

// ConnectionError indicates the HTTP round trip to a downstream service could
// not be completed at all (connection refused, DNS failure, timeout).
type ConnectionError struct {
	Service string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to %s service: %v", e.Service, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ServiceFailure indicates the downstream service was reachable but returned
// a non-success status.
type ServiceFailure struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ServiceFailure) Error() string {
	return fmt.Sprintf("%s service returned %d: %s", e.Service, e.StatusCode, e.Body)
}
