package domain

import "errors"

var (
	// ErrJobNotFound is returned when an export job cannot be found in the database
	ErrJobNotFound = errors.New("export job not found")

	// ErrInvalidFormat is returned when the requested format is not csv, excel or pdf
	ErrInvalidFormat = errors.New("unsupported export format")
)
