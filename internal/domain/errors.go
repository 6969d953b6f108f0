package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrAlreadyExists = errors.New("already exists")
var ErrUnsupported = errors.New("unsupported operation")

// ErrNoPlayableVersion is returned when a title is opened with an empty
// version list. This is a caller bug, fatal to the open attempt.
var ErrNoPlayableVersion = errors.New("no playable version")

// ErrTrackNotFound is returned when a track selection command references
// an id absent from the active version. State is left unchanged.
var ErrTrackNotFound = errors.New("track not found")
