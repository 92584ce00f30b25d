package core

import "errors"

var (
	// ErrDuplicate is returned when an item was already processed
	ErrDuplicate = errors.New("item already processed")
	// ErrNetwork is returned when the classifier is unreachable or answers non-2xx
	ErrNetwork = errors.New("classifier network error")
	// ErrParse is returned when the classifier response is malformed
	ErrParse = errors.New("classifier response malformed")
	// ErrPersistence is returned when a store operation fails
	ErrPersistence = errors.New("persistence error")
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when a channel may not be read
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyRunning is returned when starting a channel that has a live task
	ErrAlreadyRunning = errors.New("task already running")
	// ErrNotRunning is returned when stopping a channel with no live task
	ErrNotRunning = errors.New("task not running")
	// ErrStartFailure is returned when a task could not be started
	ErrStartFailure = errors.New("task start failure")
)
