package services

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateOrder   = errors.New("duplicate order")
	ErrScheduleConflict = errors.New("schedule conflict")
	ErrLockBusy         = errors.New("system busy, please try again later (lock)")
)
