package service

import "fmt"

// HTTPStatusError is returned when the search backend answers outside 2xx.
// The response body is not read.
type HTTPStatusError struct {
	StatusCode int
	StatusText string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.StatusText)
}

// NetworkError wraps a transport failure (DNS, refused connection, cancelled context)
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is returned when a 2xx body is not valid JSON
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
