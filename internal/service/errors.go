package service

import (
	"errors"
	"fmt"
)

// Error classes. Specific errors wrap one of these so callers can map by class.
var (
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("file storage unavailable")
)

var (
	ErrNotEnrolled     = fmt.Errorf("%w: not enrolled in course", ErrForbidden)
	ErrNotCourseOwner  = fmt.Errorf("%w: only the course mentor may perform this action", ErrForbidden)
	ErrMaterialLocked  = fmt.Errorf("%w: complete the previous material first", ErrForbidden)
	ErrMentorRequired  = fmt.Errorf("%w: mentor role required", ErrForbidden)
	ErrOwnerNotTracked = fmt.Errorf("%w: course mentors do not track progress", ErrForbidden)

	ErrCourseNotFound       = fmt.Errorf("%w: course", ErrNotFound)
	ErrMaterialNotFound     = fmt.Errorf("%w: material", ErrNotFound)
	ErrAssignmentNotFound   = fmt.Errorf("%w: assignment", ErrNotFound)
	ErrSubmissionNotFound   = fmt.Errorf("%w: submission", ErrNotFound)
	ErrCertificateNotFound  = fmt.Errorf("%w: certificate", ErrNotFound)
	ErrThreadNotFound       = fmt.Errorf("%w: discussion thread", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("%w: user", ErrNotFound)

	ErrInvalidTransition  = fmt.Errorf("%w: submission status does not allow this action", ErrConflict)
	ErrStaleRecord        = fmt.Errorf("%w: record was modified concurrently, retry", ErrConflict)
	ErrAttemptsExhausted  = fmt.Errorf("%w: no submission attempts left", ErrConflict)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrCertificateRevoked = fmt.Errorf("%w: certificate has been revoked", ErrConflict)

	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a rejected input field. Nothing has been mutated when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AssignmentInUseError blocks deleting an assignment that still has submissions.
type AssignmentInUseError struct {
	Submissions int64
}

func (e *AssignmentInUseError) Error() string {
	return fmt.Sprintf("assignment has %d submission(s) and cannot be deleted", e.Submissions)
}

func (e *AssignmentInUseError) Unwrap() error {
	return ErrConflict
}

// CourseIncompleteError is returned when a certificate is requested before finishing the course.
type CourseIncompleteError struct {
	Percentage int
}

func (e *CourseIncompleteError) Error() string {
	return fmt.Sprintf("course is %d%% complete; finish every material to claim the certificate", e.Percentage)
}

// AssignmentUnavailableError is returned when submitting outside the publication window.
type AssignmentUnavailableError struct {
	Reason string
}

func (e *AssignmentUnavailableError) Error() string {
	return "assignment is not open for submissions: " + e.Reason
}

func (e *AssignmentUnavailableError) Unwrap() error {
	return ErrForbidden
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
