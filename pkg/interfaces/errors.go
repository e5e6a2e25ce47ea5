package interfaces

import "errors"

var (
	// ErrUserNotFound indicates no user exists for the given identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrStudentNotFound indicates no student exists for the given identifier.
	ErrStudentNotFound = errors.New("student not found")

	// ErrTeacherNotFound indicates no teacher exists for the given identifier.
	ErrTeacherNotFound = errors.New("teacher not found")
)
