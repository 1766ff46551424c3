package bridge

import "errors"

var (
	// ErrQueueFull is returned when a bounded queue rejects a push.
	ErrQueueFull = errors.New("bridge: queue full")
	// ErrNilResponse is returned by PublishResponse for a nil payload.
	ErrNilResponse = errors.New("bridge: response must not be nil")
	// ErrMissingStatus is returned by PublishResponse when "status" is absent or not a string.
	ErrMissingStatus = errors.New("bridge: response requires a string status")
	// ErrNilSubscriber is returned by RegisterSubscriber for a nil callback.
	ErrNilSubscriber = errors.New("bridge: subscriber must not be nil")
	// ErrSubscriberPanic wraps a panic recovered from a subscriber callback.
	ErrSubscriberPanic = errors.New("bridge: subscriber panicked")
)
