package client

import "fmt"

// TransportError means the pyserver could not be reached or the request
// failed at the network/HTTP layer. Redelivery retries it.
type TransportError struct {
	Stage string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError means a stage exceeded its deadline. Treated like a
// transport failure for retry purposes.
type TimeoutError struct {
	Stage string
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out: %v", e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// InvalidResponseError means the pyserver answered but the response failed
// schema validation. Not retried: the same request would fail the same way.
type InvalidResponseError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid response: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: invalid response: %s", e.Stage, e.Reason)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }
