package domain

import "errors"

var (
	// ErrFormat marks a malformed direct /fire command.
	ErrFormat = errors.New("invalid fire command format")
	// ErrUnresolvableLocation means no coordinate could be found in the input.
	ErrUnresolvableLocation = errors.New("location could not be extracted")
	// ErrResolutionFailed is a transient network or recognizer failure.
	ErrResolutionFailed = errors.New("location resolution failed")
	// ErrPublishFailed is terminal for the report being published.
	ErrPublishFailed = errors.New("alert publish failed")

	ErrInvalidClassification = errors.New("invalid fire classification")
	ErrInvalidSeverity       = errors.New("invalid fire severity")
	ErrChannelNotConfigured  = errors.New("notification channel not configured")
)
