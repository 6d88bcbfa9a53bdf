package domain

import "errors"

var (
	// ErrResultNotFound is returned when a result ID has no record.
	ErrResultNotFound = errors.New("result not found")
	// ErrSessionNotFound indicates the session content could not be loaded.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the session.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrChoiceNotFound indicates a submitted choice text matches no option.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrResultMismatch is returned when a submission's user does not own the result.
	ErrResultMismatch = errors.New("result does not belong to user")
	// ErrRunInProgress is returned when a pairing pass for a category is already running.
	ErrRunInProgress = errors.New("pairing run already in progress for category")
)
