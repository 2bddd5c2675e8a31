package ranker

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the query's
	ErrDimensionMismatch = errors.New("vector dimensions do not match")

	// ErrEmptyCandidateSet is returned when no candidate survives exclusion and filtering
	// and the caller asked for at least one result
	ErrEmptyCandidateSet = errors.New("no eligible candidates")

	// ErrInvalidK is returned when fewer than one result is requested
	ErrInvalidK = errors.New("k must be at least 1")

	// ErrNoVectors is returned when aggregating an empty list of vectors
	ErrNoVectors = errors.New("at least one vector is required")

	// ErrDuplicateCandidate is returned when two candidates share an identifier
	ErrDuplicateCandidate = errors.New("duplicate candidate id")

	// ErrInvalidCandidate is returned when a candidate has no identifier or no vector
	ErrInvalidCandidate = errors.New("invalid candidate")
)
