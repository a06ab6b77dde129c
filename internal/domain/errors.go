package domain

import "errors"

var (
	// ErrValidation is returned for malformed question or quiz input; the
	// operation is never partially applied.
	ErrValidation = errors.New("validation failed")
	// ErrQuizNotFound indicates no questions exist under the given quiz name.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates no question matches (quiz name, text),
	// or the selected option is not one of its options.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrEmptyQuiz is returned when starting an attempt on a quiz with no
	// questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrIndexOutOfRange is returned when removing a staged question by an
	// invalid position.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrAttemptNotFound indicates an unknown or already-submitted attempt.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrUsernameTaken is returned by the identity collaborator on duplicate
	// registration.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on failed authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStorage wraps document-store failures; they surface to the caller
	// verbatim, never retried inside the core.
	ErrStorage = errors.New("storage failure")
)
