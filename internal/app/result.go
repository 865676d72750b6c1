package app

import "time"

// Result is the settled outcome of one submission.
type Result struct {
	SubmissionID string
	StatusCode   int // zero when no response was received
	Duration     time.Duration
	Err          error
}

// OK reports whether the request completed under the handler's status policy.
func (r Result) OK() bool { return r.Err == nil }
