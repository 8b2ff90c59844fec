package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = goerr.New("not found")

	// ErrConflict indicates a uniqueness violation, e.g. two writers
	// assigned the same version number in a room.
	ErrConflict = goerr.New("conflict")

	ErrInvalidRoomType = goerr.New("invalid room type")
	ErrInvalidRole     = goerr.New("invalid message role")
)
