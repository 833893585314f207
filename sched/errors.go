package sched

import "errors"

// Admission and lifecycle failures surfaced by the scheduler API.
// Callers classify with errors.Is; call sites add context via %w wrapping.
// ErrInvalidImage also covers malformed admission requests such as a
// rejected sandbox profile.
var (
	ErrProcessNotFound       = errors.New("process not found")
	ErrOutOfMemory           = errors.New("out of memory")
	ErrInvalidImage          = errors.New("invalid image")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
	ErrSandboxViolation      = errors.New("sandbox violation")
	ErrSchedulerClosed       = errors.New("scheduler closed")
)
