package findings

import "errors"

var (
	// ErrNotFound indicates the referenced finding_id does not exist.
	ErrNotFound = errors.New("finding not found")

	// ErrDuplicateID indicates an insert with an already-used finding_id.
	ErrDuplicateID = errors.New("duplicate finding id")

	// ErrInvalidSeverity indicates a severity outside the enumerated set.
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrInvalidStatus indicates a status outside the enumerated set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidFinding indicates a payload missing required fields.
	ErrInvalidFinding = errors.New("invalid finding")
)
