package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrLessonNotFound is returned when a lesson ID is not in the catalog.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrUnknownCommand is returned when a playback command name is not recognized.
var ErrUnknownCommand = errors.New("unknown playback command")

// ErrMissingKind is returned when a scenario document has no kind.
var ErrMissingKind = errors.New("scenario kind is required")

// ErrUnsupportedKind is returned by checks when a scenario kind has no generator.
var ErrUnsupportedKind = errors.New("unsupported scenario kind")
