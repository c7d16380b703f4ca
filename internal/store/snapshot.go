package store

import (
	"slices"

	"github.com/MarcoPoloResearchLab/collectibles/internal/images"
	"github.com/MarcoPoloResearchLab/collectibles/internal/pagination"
	"github.com/MarcoPoloResearchLab/collectibles/internal/records"
	"github.com/MarcoPoloResearchLab/collectibles/internal/slideshow"
)

// Status is the lifecycle of one kind of remote operation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Operation names the remote operations tracked independently by the store.
type Operation string

const (
	OperationLoad   Operation = "load"
	OperationCreate Operation = "create"
	OperationDelete Operation = "delete"
)

// OperationState reports the status of one operation kind and the last failure message.
type OperationState struct {
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	InFlight  int    `json:"in_flight"`
}

// operationTracker keeps the settled outcome apart from the in-flight count so overlapping
// calls report Loading until all of them resolve.
type operationTracker struct {
	outcome   Status
	message   string
	errorKind string
	inFlight  int
}

func (t *operationTracker) begin() {
	t.inFlight++
}

func (t *operationTracker) finish() {
	if t.inFlight > 0 {
		t.inFlight--
	}
}

func (t *operationTracker) succeed() {
	t.outcome = StatusReady
	t.message = ""
	t.errorKind = ""
}

func (t *operationTracker) fail(message, errorKind string) {
	t.outcome = StatusError
	t.message = message
	t.errorKind = errorKind
}

func (t *operationTracker) reset() {
	*t = operationTracker{inFlight: t.inFlight}
}

func (t operationTracker) state() OperationState {
	status := t.outcome
	if status == "" {
		status = StatusIdle
	}
	if t.inFlight > 0 {
		status = StatusLoading
	}
	return OperationState{
		Status:    status,
		Error:     t.message,
		ErrorKind: t.errorKind,
		InFlight:  t.inFlight,
	}
}

// Card is one visible record with its carousel position.
type Card struct {
	Record        records.Record `json:"record"`
	SlideIndex    int            `json:"slide_index"`
	SlidePosition string         `json:"slide_position,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	CreatedLabel  string         `json:"created_label,omitempty"`
}

const createdLabelLayout = "Jan 2, 2006"

// Snapshot is an immutable copy of the store state for rendering.
type Snapshot struct {
	Version         uint64                       `json:"version"`
	Records         []records.Record             `json:"records"`
	Page            pagination.View              `json:"page"`
	PageLabel       string                       `json:"page_label"`
	PageSizeOptions []int                        `json:"page_size_options"`
	Cards           []Card                       `json:"cards"`
	Slides          map[string]int               `json:"slides"`
	Images          []images.Image               `json:"images"`
	Draft           records.Draft                `json:"draft"`
	DraftOpen       bool                         `json:"draft_open"`
	Operations      map[Operation]OperationState `json:"operations"`
	Notifications   []Notification               `json:"notifications"`
}

// Snapshot copies the current state and derives the visible page window.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	imageCount := len(s.gallery)
	window := pagination.WindowOf(s.collection, s.pageIndex, s.pageSize)
	cards := make([]Card, 0, len(window))
	for _, record := range window {
		index := s.slides.Index(record.ID.String(), imageCount)
		card := Card{
			Record:        record,
			SlideIndex:    index,
			SlidePosition: slideshow.Position(index, imageCount),
		}
		if imageCount > 0 {
			card.ImageURL = s.gallery[index].URL
		}
		if created, ok := record.CreatedTime(); ok {
			card.CreatedLabel = created.Format(createdLabelLayout)
		}
		cards = append(cards, card)
	}

	notifications := slices.Clone(s.notifications)
	if notifications == nil {
		notifications = []Notification{}
	}
	view := pagination.NewView(s.pageIndex, len(s.collection), s.pageSize)

	return Snapshot{
		Version:         s.version,
		Records:         records.Clone(s.collection),
		Page:            view,
		PageLabel:       view.Label(),
		PageSizeOptions: slices.Clone(s.pageSizeOptions),
		Cards:           cards,
		Slides:          s.slides.Entries(),
		Images:          slices.Clone(s.gallery),
		Draft:           s.draft,
		DraftOpen:       s.draftOpen,
		Operations: map[Operation]OperationState{
			OperationLoad:   s.load.state(),
			OperationCreate: s.create.state(),
			OperationDelete: s.remove.state(),
		},
		Notifications: notifications,
	}
}
