package assessment

import "errors"

var (
	// ErrInvalidScore rejects response scores outside {1,2,3,4} at the
	// collector boundary, before anything is stored.
	ErrInvalidScore = errors.New("score must be between 1 and 4")

	// ErrUnknownQuestion rejects responses to question ids not in the
	// catalog.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrInactiveQuestion rejects responses to questions that have been
	// deactivated.
	ErrInactiveQuestion = errors.New("question is no longer active")

	// ErrAssessmentCompleted rejects writes to a finalized assessment.
	ErrAssessmentCompleted = errors.New("assessment is completed and read-only")

	// ErrAlreadyFinalized rejects a second finalization.
	ErrAlreadyFinalized = errors.New("assessment is already finalized")

	// ErrIncomplete rejects finalization below the completion threshold
	// when force is not set.
	ErrIncomplete = errors.New("assessment is not complete enough to finalize")
)
