package domain

import "errors"

var (
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("resource already exists or conflict state")
	ErrAlreadyDrawn          = errors.New("group has already been drawn")
	ErrNotDrawn              = errors.New("group has not been drawn yet")
	ErrNotEnoughParticipants = errors.New("at least 2 participants are required")
	ErrUnsatisfiable         = errors.New("no valid assignment exists for this group size")
	ErrDrawFailed            = errors.New("could not find a valid assignment, try again")
	ErrInvalidName           = errors.New("name must not be empty")
)
