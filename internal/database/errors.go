package database

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidPeriod = errors.New("period out of range")
	ErrForeignItem   = errors.New("item does not belong to project")
	ErrMeasured      = errors.New("period already has measured values")
)
