package hackathon

import "errors"

var (
	// ErrHackathonNotFound is returned when a hackathon does not exist.
	ErrHackathonNotFound = errors.New("hackathon not found")

	// ErrRegistrationClosed is returned when registering outside the
	// registration window.
	ErrRegistrationClosed = errors.New("registration is closed")

	// ErrAlreadyRegistered is returned when a user registers twice for the
	// same hackathon.
	ErrAlreadyRegistered = errors.New("user is already registered")

	// ErrInvalidWindow is returned when a hackathon's time windows are
	// inconsistent.
	ErrInvalidWindow = errors.New("invalid registration or event window")
)
