package db

import "errors"

var (
	// ErrCollectionExists is returned when trying to create a collection that already exists
	ErrCollectionExists = errors.New("collection already exists")

	// ErrCollectionNotFound is returned when trying to access a non-existent collection
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrVectorNotFound is returned when trying to access a non-existent vector
	ErrVectorNotFound = errors.New("vector not found")

	// ErrInvalidDimensions is returned when vector dimensions don't match the collection configuration
	ErrInvalidDimensions = errors.New("invalid vector dimensions")

	// ErrEmptyVector is returned when inserting a vector without data
	ErrEmptyVector = errors.New("vector is empty")

	// ErrInvalidParameter is returned for empty ids or non-positive k
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDuplicateVector is returned when inserting an id that is already in the graph
	ErrDuplicateVector = errors.New("vector already exists")
)
