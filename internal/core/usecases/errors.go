package usecases

import "errors"

var (
	// ErrNoRoute means the destination is unreachable from the origin.
	ErrNoRoute = errors.New("no route between stations")
	// ErrStationNotFound means a station id is not part of the network.
	ErrStationNotFound = errors.New("station not found")
	// ErrLineNotFound means a line id is not part of the network.
	ErrLineNotFound = errors.New("line not found")
	// ErrInvalidNetwork means the loaded network failed validation.
	ErrInvalidNetwork = errors.New("invalid network")
	// ErrInvalidArgument marks a malformed request parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrHistoryIndex means a history position does not exist.
	ErrHistoryIndex = errors.New("history index out of range")
)
