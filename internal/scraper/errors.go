package scraper

import "fmt"

// FetchError reports a transport failure or a non-2xx response
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports an expected element or column that is absent from a page
type ParseError struct {
	URL  string
	What string
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("parsing page: %s", e.What)
	}
	return fmt.Sprintf("parsing %s: %s", e.URL, e.What)
}
