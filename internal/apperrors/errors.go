package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrIncompleteCoverage indicates that a batch run finished without every
// known user receiving an assignment for every requested window.
var ErrIncompleteCoverage = errors.New("incomplete persona coverage")
