package rejection

import (
	"errors"

	"github.com/sells-group/glassbox/internal/evidence"
)

// Class groups errors by how the pipeline must handle them.
type Class string

const (
	// ClassRejection is a domain rejection carrying a Rule.
	ClassRejection Class = "rejection"
	// ClassViolation is a broken invariant: invalid evidence or a schema
	// mismatch. It indicates a defect and is logged, never recorded as a
	// rejection.
	ClassViolation Class = "violation"
	// ClassError is any other failure.
	ClassError Class = "error"
)

// Classify returns the class of err. A nil error has no class.
func Classify(err error) Class {
	if err == nil {
		return ""
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return ClassRejection
	}
	if errors.Is(err, evidence.ErrInvalidEvidence) || errors.Is(err, evidence.ErrSchemaMismatch) {
		return ClassViolation
	}
	return ClassError
}

// IsViolation reports whether err is an invariant violation.
func IsViolation(err error) bool {
	return Classify(err) == ClassViolation
}
