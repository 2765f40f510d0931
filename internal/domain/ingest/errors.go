package ingest

import "errors"

var (
	// ErrMalformed marks a message body that cannot be decoded or fails
	// shape validation. Redelivery will not fix it.
	ErrMalformed = errors.New("malformed message")

	// ErrReviewNotFound marks a report that references a review this system
	// has not ingested yet. With out-of-order delivery this is expected and
	// transient; the message must stay retryable.
	ErrReviewNotFound = errors.New("review not found")

	// ErrDuplicateReview marks an insert that hit the unique external
	// review id. Redelivering the same batch forever cannot succeed.
	ErrDuplicateReview = errors.New("review already exists")
)

type Failure int

const (
	// FailureMalformed: permanently undecodable, dead-letter immediately.
	FailureMalformed Failure = iota
	// FailureTransient: expected to succeed on a later delivery.
	FailureTransient
	// FailurePersistent: constraint or unknown errors; retried once, then
	// dead-lettered.
	FailurePersistent
)

// ClassifyFailure maps a handler error onto the redelivery policy buckets.
func ClassifyFailure(err error) Failure {
	switch {
	case errors.Is(err, ErrMalformed):
		return FailureMalformed
	case errors.Is(err, ErrReviewNotFound):
		return FailureTransient
	default:
		return FailurePersistent
	}
}
