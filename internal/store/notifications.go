package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationKind separates success toasts from error toasts.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a user-visible outcome of a remote operation. Every failed operation
// yields exactly one error notification and every create/delete success exactly one
// success notification carrying the record id.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Operation Operation        `json:"operation"`
	Message   string           `json:"message"`
	RecordID  string           `json:"record_id,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// IDProvider issues notification identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// IDProviderFunc adapts a function to IDProvider.
type IDProviderFunc func() (string, error)

func (f IDProviderFunc) NewID() (string, error) {
	return f()
}

// NewUUIDProvider issues UUIDv7 identifiers, which sort by creation time.
func NewUUIDProvider() IDProvider {
	return IDProviderFunc(func() (string, error) {
		value, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return value.String(), nil
	})
}

// pushNotificationLocked appends a notification, trimming the oldest beyond the limit.
// Callers hold s.mu.
func (s *Store) pushNotificationLocked(kind NotificationKind, operation Operation, message, recordID, errorKind string) Notification {
	identifier, err := s.ids.NewID()
	if err != nil {
		s.logError(opNotification, "id_generation_failed", err)
		s.fallbackIDs++
		identifier = fmt.Sprintf("notification-%d", s.fallbackIDs)
	}
	notification := Notification{
		ID:        identifier,
		Kind:      kind,
		Operation: operation,
		Message:   message,
		RecordID:  recordID,
		ErrorKind: errorKind,
		CreatedAt: s.clock().UTC(),
	}
	s.notifications = append(s.notifications, notification)
	if overflow := len(s.notifications) - s.notificationLimit; overflow > 0 {
		s.notifications = append([]Notification(nil), s.notifications[overflow:]...)
	}
	s.logger.Debug("notification raised",
		zap.String("kind", string(kind)),
		zap.String("operation", string(operation)),
		zap.String("record_id", recordID))
	return notification
}

// Dismiss removes a notification once the user has seen it.
func (s *Store) Dismiss(notificationID string) bool {
	s.mu.Lock()
	index := -1
	for position, notification := range s.notifications {
		if notification.ID == notificationID {
			index = position
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return false
	}
	remaining := make([]Notification, 0, len(s.notifications)-1)
	remaining = append(remaining, s.notifications[:index]...)
	remaining = append(remaining, s.notifications[index+1:]...)
	s.notifications = remaining
	version := s.touchLocked()
	s.mu.Unlock()

	s.emit(version)
	return true
}
