package connection

import "errors"

var (
	// ErrAlreadyConnected is returned by Connect when the tenant has a live session.
	ErrAlreadyConnected = errors.New("tenant already has a live session")

	// ErrNoSession is returned when an operation needs a live session and there is none.
	ErrNoSession = errors.New("tenant has no live session")

	// ErrInboxFull is returned by Dispatch when the session inbox stayed full
	// until the caller's context ended.
	ErrInboxFull = errors.New("session inbox is full")

	// ErrManagerClosed is returned by Connect after Shutdown.
	ErrManagerClosed = errors.New("connection manager is shut down")
)
