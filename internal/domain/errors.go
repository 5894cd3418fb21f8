package domain

import "errors"

// Sentinel errors produced at the timeline adapter boundary. Core logic
// classifies collaborator failures with errors.Is against these and never
// inspects library error types directly.
var (
	// ErrNotFound means the reply target no longer exists; retrying can
	// never succeed.
	ErrNotFound = errors.New("target not found")

	// ErrForbidden means the platform refused the action for policy or
	// permission reasons; retrying can never succeed.
	ErrForbidden = errors.New("action forbidden")

	// ErrContract means the collaborator integration itself is broken
	// (unexpected payload shape); continuing would silently skip all
	// future work, so this is fatal to the run.
	ErrContract = errors.New("collaborator contract violation")
)
