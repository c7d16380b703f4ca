// Package store holds the dashboard's client-side copy of the record collection and the UI
// state derived from it. All mutation goes through one method per intent; readers get an
// immutable Snapshot.
//
// Local state only changes after the backend confirms an operation. Remote calls run
// outside the lock, so a refresh may be issued while another one, or a create or delete, is
// still outstanding.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/images"
	"github.com/MarcoPoloResearchLab/collectibles/internal/pagination"
	"github.com/MarcoPoloResearchLab/collectibles/internal/records"
	"github.com/MarcoPoloResearchLab/collectibles/internal/remote"
	"github.com/MarcoPoloResearchLab/collectibles/internal/slideshow"
	"go.uber.org/zap"
)

const (
	defaultPageSize          = 10
	defaultNotificationLimit = 20

	fallbackFetchMessage  = "Failed to fetch"
	fallbackCreateMessage = "Failed to create"
	fallbackDeleteMessage = "Failed to delete"
)

var (
	defaultPageSizeOptions = []int{5, 10, 25}
	noOpLogger             = zap.NewNop()
)

// Remote is the collection API the store synchronizes with.
type Remote interface {
	List(ctx context.Context) ([]records.Record, error)
	Create(ctx context.Context, draft records.Draft) (records.Record, error)
	DeleteByID(ctx context.Context, id records.RecordID) error
}

// ImageSource supplies the shared gallery. It never fails; problems yield an empty list.
type ImageSource interface {
	List(ctx context.Context) []images.Image
}

// Publisher receives an Event after every state change.
type Publisher interface {
	Publish(event Event)
}

// EventType names what an Event announces.
type EventType string

const (
	EventStateChanged EventType = "state-change"
	EventNotification EventType = "notification"
)

// Event tells subscribers that the snapshot moved to Version, optionally carrying the
// notification raised by the change.
type Event struct {
	Type         EventType
	Version      uint64
	Notification *Notification
	Timestamp    time.Time
}

// Config describes the dependencies of a Store.
type Config struct {
	Remote            Remote
	Images            ImageSource
	Publisher         Publisher
	IDProvider        IDProvider
	Clock             func() time.Time
	Logger            *zap.Logger
	PageSize          int
	PageSizeOptions   []int
	NotificationLimit int
}

// Store is the dashboard state container.
type Store struct {
	remote            Remote
	images            ImageSource
	publisher         Publisher
	ids               IDProvider
	clock             func() time.Time
	logger            *zap.Logger
	pageSizeOptions   []int
	defaultPageSize   int
	notificationLimit int

	mu              sync.Mutex
	version         uint64
	collection      []records.Record
	pageIndex       int
	pageSize        int
	slides          slideshow.Map
	gallery         []images.Image
	imagesRequested bool
	draft           records.Draft
	draftOpen       bool
	load            operationTracker
	create          operationTracker
	remove          operationTracker
	refreshIssued   uint64
	notifications   []Notification
	fallbackIDs     int
}

// New validates the configuration and returns an empty store.
func New(cfg Config) (*Store, error) {
	if cfg.Remote == nil {
		return nil, newStoreError(opStoreNew, "missing_remote", errMissingRemote)
	}

	options := cfg.PageSizeOptions
	if len(options) == 0 {
		options = defaultPageSizeOptions
	}
	options = slices.Clone(options)
	for _, option := range options {
		if option <= 0 {
			return nil, newStoreError(opStoreNew, "invalid_page_options", errInvalidPageOptions)
		}
	}
	slices.Sort(options)
	options = slices.Compact(options)

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if !slices.Contains(options, pageSize) {
		return nil, newStoreError(opStoreNew, "invalid_page_size", fmt.Errorf("%w: %d", errInvalidPageSize, pageSize))
	}

	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	limit := cfg.NotificationLimit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	return &Store{
		remote:            cfg.Remote,
		images:            cfg.Images,
		publisher:         cfg.Publisher,
		ids:               ids,
		clock:             clock,
		logger:            logger,
		pageSizeOptions:   options,
		defaultPageSize:   pageSize,
		notificationLimit: limit,
		collection:        []records.Record{},
		pageSize:          pageSize,
		gallery:           []images.Image{},
	}, nil
}

// Refresh replaces the collection with the backend's. On failure the previous collection
// stays visible. Each call takes a new generation; a response is applied only if no newer
// refresh was issued meanwhile, otherwise it is dropped and ErrSuperseded returned.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshIssued++
	generation := s.refreshIssued
	s.load.begin()
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)

	collection, err := s.remote.List(ctx)

	s.mu.Lock()
	s.load.finish()
	if generation != s.refreshIssued {
		if err != nil {
			// The newer refresh owns the load status; the failure is still reported once.
			message := failureMessage(err, fallbackFetchMessage)
			kind := string(remote.KindOf(err))
			notification := s.pushNotificationLocked(NotificationError, OperationLoad, message, "", kind)
			version := s.touchLocked()
			s.mu.Unlock()
			s.logError(opRefresh, "superseded_list_failed", err, zap.Uint64("generation", generation))
			s.emit(version, notification)
			return newStoreError(opRefresh, "superseded_list_failed", fmt.Errorf("%w: %w", ErrSuperseded, err))
		}
		version := s.touchLocked()
		s.mu.Unlock()
		s.logger.Debug("discarding superseded refresh", zap.Uint64("generation", generation))
		s.emit(version)
		return ErrSuperseded
	}
	if err != nil {
		message := failureMessage(err, fallbackFetchMessage)
		kind := string(remote.KindOf(err))
		s.load.fail(message, kind)
		notification := s.pushNotificationLocked(NotificationError, OperationLoad, message, "", kind)
		version := s.touchLocked()
		s.mu.Unlock()
		s.logError(opRefresh, "list_failed", err)
		s.emit(version, notification)
		return newStoreError(opRefresh, "list_failed", err)
	}

	s.collection = records.Clone(collection)
	s.clampPageLocked()
	s.load.succeed()
	version = s.touchLocked()
	size := len(s.collection)
	s.mu.Unlock()

	s.logger.Debug("collection refreshed", zap.Int("records", size))
	s.emit(version)
	return nil
}

// Create submits draft. On success the record is prepended, the first page is shown and the
// draft is cleared; on failure nothing changes and the draft is kept.
func (s *Store) Create(ctx context.Context, draft records.Draft) (records.Record, error) {
	return s.createRecord(ctx, draft, false)
}

// SubmitDraft creates a record from the draft currently held by the store. Edits made while
// the create is in flight survive it.
func (s *Store) SubmitDraft(ctx context.Context) (records.Record, error) {
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()
	return s.createRecord(ctx, draft, true)
}

// createRecord clears the held draft on success; with onlyIfUnchanged it does so only when
// the held draft still equals the submitted one.
func (s *Store) createRecord(ctx context.Context, draft records.Draft, onlyIfUnchanged bool) (records.Record, error) {
	s.mu.Lock()
	s.create.begin()
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)

	created, err := s.remote.Create(ctx, draft)

	s.mu.Lock()
	s.create.finish()
	if err != nil {
		message := failureMessage(err, fallbackCreateMessage)
		kind := string(remote.KindOf(err))
		s.create.fail(message, kind)
		notification := s.pushNotificationLocked(NotificationError, OperationCreate, message, "", kind)
		version := s.touchLocked()
		s.mu.Unlock()
		s.logError(opCreate, "create_failed", err)
		s.emit(version, notification)
		return records.Record{}, newStoreError(opCreate, "create_failed", err)
	}

	s.collection = records.Prepend(s.collection, created)
	s.pageIndex = 0
	if !onlyIfUnchanged || s.draft == draft {
		s.draft = records.Draft{}
		s.draftOpen = false
	}
	s.create.succeed()
	notification := s.pushNotificationLocked(NotificationSuccess, OperationCreate,
		fmt.Sprintf("Created record %s", created.ID.String()), created.ID.String(), "")
	version = s.touchLocked()
	s.mu.Unlock()

	s.logger.Info("record created", zap.String("record_id", created.ID.String()))
	s.emit(version, notification)
	return created, nil
}

// Delete removes the record from the backend and then locally. A record that is no longer
// in the collection, for example because a refresh dropped it, is left alone.
func (s *Store) Delete(ctx context.Context, id records.RecordID) error {
	s.mu.Lock()
	if index := records.IndexOf(s.collection, id); index >= 0 {
		id = s.collection[index].ID
	}
	s.remove.begin()
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)

	err := s.remote.DeleteByID(ctx, id)

	s.mu.Lock()
	s.remove.finish()
	if err != nil {
		message := failureMessage(err, fallbackDeleteMessage)
		kind := string(remote.KindOf(err))
		s.remove.fail(message, kind)
		notification := s.pushNotificationLocked(NotificationError, OperationDelete, message, id.String(), kind)
		version := s.touchLocked()
		s.mu.Unlock()
		s.logError(opDelete, "delete_failed", err, zap.String("record_id", id.String()))
		s.emit(version, notification)
		return newStoreError(opDelete, "delete_failed", err)
	}

	var removed bool
	s.collection, removed = records.RemoveByID(s.collection, id)
	s.slides = s.slides.Without(id.String())
	s.clampPageLocked()
	s.remove.succeed()
	notification := s.pushNotificationLocked(NotificationSuccess, OperationDelete,
		fmt.Sprintf("Deleted record %s", id.String()), id.String(), "")
	version = s.touchLocked()
	s.mu.Unlock()

	s.logger.Info("record deleted", zap.String("record_id", id.String()), zap.Bool("was_present", removed))
	s.emit(version, notification)
	return nil
}

// LoadImages fetches the shared gallery once per session; later calls are no-ops.
func (s *Store) LoadImages(ctx context.Context) {
	s.mu.Lock()
	if s.imagesRequested || s.images == nil {
		s.mu.Unlock()
		return
	}
	s.imagesRequested = true
	s.mu.Unlock()

	gallery := s.images.List(ctx)

	s.mu.Lock()
	s.gallery = slices.Clone(gallery)
	if s.gallery == nil {
		s.gallery = []images.Image{}
	}
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
}

// NextPage moves one page forward, stopping at the last page.
func (s *Store) NextPage() pagination.View {
	return s.movePage(func(index, count, size int) int {
		return pagination.Next(index, count, size)
	})
}

// PreviousPage moves one page back, stopping at the first page.
func (s *Store) PreviousPage() pagination.View {
	return s.movePage(func(index, _, _ int) int {
		return pagination.Previous(index)
	})
}

// SetPage jumps to pageIndex, clamped into the valid range.
func (s *Store) SetPage(pageIndex int) pagination.View {
	return s.movePage(func(_, count, size int) int {
		return pagination.Clamp(pageIndex, count, size)
	})
}

func (s *Store) movePage(next func(index, count, size int) int) pagination.View {
	s.mu.Lock()
	s.pageIndex = next(s.pageIndex, len(s.collection), s.pageSize)
	view := pagination.NewView(s.pageIndex, len(s.collection), s.pageSize)
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
	return view
}

// SetPageSize changes the number of cards per page and returns to the first page.
func (s *Store) SetPageSize(pageSize int) (pagination.View, error) {
	if !slices.Contains(s.pageSizeOptions, pageSize) {
		return pagination.View{}, newStoreError(opSetPageSize, "invalid_page_size", fmt.Errorf("%w: %d", errInvalidPageSize, pageSize))
	}
	s.mu.Lock()
	s.pageSize = pageSize
	s.pageIndex = 0
	view := pagination.NewView(s.pageIndex, len(s.collection), s.pageSize)
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
	return view, nil
}

// AdvanceSlide moves a card's carousel one step and returns the new index. Without images
// the index stays 0.
func (s *Store) AdvanceSlide(id records.RecordID, direction slideshow.Direction) int {
	s.mu.Lock()
	count := len(s.gallery)
	s.slides = s.slides.Advance(id.String(), count, direction)
	index := s.slides.Index(id.String(), count)
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
	return index
}

// OpenDraft starts a new, empty draft.
func (s *Store) OpenDraft() records.Draft {
	s.mu.Lock()
	s.draft = records.Draft{}
	s.draftOpen = true
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
	return records.Draft{}
}

// UpdateDraft sets one form field of the held draft.
func (s *Store) UpdateDraft(field records.DraftField, value string) (records.Draft, error) {
	s.mu.Lock()
	updated, err := s.draft.With(field, value)
	if err != nil {
		s.mu.Unlock()
		return records.Draft{}, newStoreError(opUpdateDraft, "unknown_field", err)
	}
	s.draft = updated
	s.draftOpen = true
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
	return updated, nil
}

// CancelDraft discards the held draft and closes the form. Cancelling a closed, empty form
// is a no-op.
func (s *Store) CancelDraft() {
	s.mu.Lock()
	if !s.draftOpen && s.draft.IsEmpty() {
		s.mu.Unlock()
		return
	}
	s.draft = records.Draft{}
	s.draftOpen = false
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
}

// Reset returns the store to its initial state. Outstanding refreshes are invalidated.
func (s *Store) Reset() {
	s.mu.Lock()
	s.refreshIssued++
	s.collection = []records.Record{}
	s.pageIndex = 0
	s.pageSize = s.defaultPageSize
	s.slides = slideshow.Map{}
	s.gallery = []images.Image{}
	s.imagesRequested = false
	s.draft = records.Draft{}
	s.draftOpen = false
	s.load.reset()
	s.create.reset()
	s.remove.reset()
	s.notifications = nil
	version := s.touchLocked()
	s.mu.Unlock()
	s.emit(version)
}

func (s *Store) clampPageLocked() {
	s.pageIndex = pagination.Clamp(s.pageIndex, len(s.collection), s.pageSize)
}

func (s *Store) touchLocked() uint64 {
	s.version++
	return s.version
}

func (s *Store) emit(version uint64, notifications ...Notification) {
	if s.publisher == nil {
		return
	}
	now := s.clock().UTC()
	s.publisher.Publish(Event{Type: EventStateChanged, Version: version, Timestamp: now})
	for index := range notifications {
		notification := notifications[index]
		s.publisher.Publish(Event{
			Type:         EventNotification,
			Version:      version,
			Notification: &notification,
			Timestamp:    now,
		})
	}
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("record store error", attrs...)
}

func failureMessage(err error, fallback string) string {
	if message := remote.MessageOf(err); message != "" {
		return message
	}
	return fallback
}
