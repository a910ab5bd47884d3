package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Store errors
	ErrStoreUnavailable = fmt.Errorf("store unavailable")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrStudentNotFound  = fmt.Errorf("student not found")
	ErrNoMigrations     = fmt.Errorf("no migrations to roll back")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
