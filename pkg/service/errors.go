package service

import "errors"

var (
	// ErrProfileUnavailable is returned for any failed profile lookup.
	ErrProfileUnavailable = errors.New("profile unavailable")

	// ErrBanRejected is returned when the ban API answers with a non-2xx status.
	ErrBanRejected = errors.New("ban rejected")
)
