package remote

import (
	"errors"
	"fmt"
)

// Kind classifies a failed round trip.
type Kind string

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = "network"
	// KindServer means the backend answered with a non-2xx status or an unreadable body.
	KindServer Kind = "server"
	// KindNotFound means the backend reported the delete target as absent.
	KindNotFound Kind = "not_found"
)

var (
	ErrNetwork  = errors.New("remote: network error")
	ErrServer   = errors.New("remote: server error")
	ErrNotFound = errors.New("remote: record not found")
)

// Error describes a failed call to the collection API. It matches ErrNetwork, ErrServer or
// ErrNotFound under errors.Is according to its Kind.
type Error struct {
	Kind       Kind
	Operation  string
	StatusCode int
	Message    string
	err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Operation, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Operation, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrServer:
		return e.Kind == KindServer
	case ErrNotFound:
		return e.Kind == KindNotFound
	default:
		return false
	}
}

// Code returns the operation-qualified error code, e.g. "remote.list.network".
func (e *Error) Code() string {
	return fmt.Sprintf("%s.%s", e.Operation, e.Kind)
}

// KindOf extracts the Kind of a remote error, or "" for anything else.
func KindOf(err error) Kind {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Kind
	}
	return ""
}

// MessageOf returns the human-readable part of a remote error, falling back to err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var remoteErr *Error
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		return remoteErr.Message
	}
	return err.Error()
}
