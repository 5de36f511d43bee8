package project

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrJobNotFound     = errors.New("job not found")
	// ErrNotFound is returned when a track or clip id is not in the project.
	ErrNotFound        = errors.New("track or clip not found")
	ErrTrackLocked     = errors.New("track is locked")
	ErrConflict        = errors.New("project was modified concurrently")
	ErrInvalidTimeline = errors.New("invalid timeline")
	ErrInvalidInput    = errors.New("invalid input")
)
