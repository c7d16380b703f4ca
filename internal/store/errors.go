package store

import (
	"errors"
	"fmt"
)

var (
	errMissingRemote      = errors.New("remote collection client is required")
	errInvalidPageSize    = errors.New("page size must be one of the configured options")
	errInvalidPageOptions = errors.New("page size options must be positive")

	// ErrSuperseded is returned by Refresh when a newer refresh was issued before this one
	// resolved; its response was discarded.
	ErrSuperseded = errors.New("store: refresh superseded by a newer request")
	// ErrInvalidPageSize is returned by SetPageSize for sizes outside the configured options.
	ErrInvalidPageSize = errInvalidPageSize
)

// Error is a coded store failure; Code returns "<operation>.<reason>".
type Error struct {
	code string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Code() string {
	return e.code
}

const (
	opStoreNew     = "store.new"
	opRefresh      = "store.refresh"
	opCreate       = "store.create"
	opDelete       = "store.delete"
	opSetPageSize  = "store.set_page_size"
	opUpdateDraft  = "store.update_draft"
	opNotification = "store.notification"
)

func newStoreError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &Error{code: code, err: cause}
}
