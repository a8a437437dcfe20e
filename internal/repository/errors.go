package repository

import "errors"

// ErrTaskNotFound is returned by read helpers when no task has the given id.
var ErrTaskNotFound = errors.New("task not found")
