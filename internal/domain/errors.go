package domain

import "errors"

var (
	// ErrValidation signals malformed or missing caller input.
	ErrValidation = errors.New("invalid input")
	// ErrPayloadTooLarge signals an upload exceeding the configured size limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrDocumentNotFound signals a missing document record.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrFileNotFound signals a record that exists but references no stored content.
	ErrFileNotFound = errors.New("document file not found")
	// ErrTimeout signals a bounded operation exceeding its deadline.
	ErrTimeout = errors.New("operation timed out")
	// ErrRateLimited signals upstream throughput exhaustion.
	ErrRateLimited = errors.New("rate limited")
	// ErrConfiguration signals missing deployment configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream signals a store call that failed for any other reason.
	ErrUpstream = errors.New("upstream failure")
)
