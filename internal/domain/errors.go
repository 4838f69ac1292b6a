package domain

import "errors"

var (
	// ErrMissingCredentials signals an answering-service client constructed
	// without a knowledge base id, host or endpoint key.
	ErrMissingCredentials = errors.New("missing knowledge base credentials")
	// ErrAnsweringService signals an answering-service query or train failure.
	ErrAnsweringService = errors.New("answering service error")
	// ErrRecognizerService signals an intent-recognition failure.
	ErrRecognizerService = errors.New("intent recognizer error")
	// ErrSendFailed signals an outbound message send failure.
	ErrSendFailed = errors.New("message send failed")
	// ErrEmptyMessage signals an inbound turn with no text.
	ErrEmptyMessage = errors.New("empty message text")
)
