package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/store"
)

const (
	RealtimeEventStateChanged = string(store.EventStateChanged)
	RealtimeEventNotification = string(store.EventNotification)
	realtimeEventHeartbeat    = "heartbeat"
	realtimeSource            = "collectibles-dashboard"
	defaultRealtimeBuffer     = 32
)

// RealtimeMessage is one server-sent event fanned out to every open dashboard stream.
type RealtimeMessage struct {
	EventType    string
	Version      uint64
	Notification *store.Notification
	Timestamp    time.Time
}

// RealtimeDispatcher broadcasts store events to subscribers. Slow subscribers lose messages
// rather than blocking the store; a later state-change carries the newest version anyway.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[int64]*realtimeSubscriber),
		bufferSize:  defaultRealtimeBuffer,
	}
}

// Subscribe registers a stream that lives until ctx ends or the returned cleanup runs.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context) (<-chan RealtimeMessage, func()) {
	subscriber := &realtimeSubscriber{
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.EventType == "" {
		return
	}
	d.mu.RLock()
	if len(d.subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(d.subscribers))
	for _, subscriber := range d.subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

// SubscriberCount reports how many streams are registered.
func (d *RealtimeDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

func (d *RealtimeDispatcher) registerSubscriber(subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	subscriber.id = d.nextID
	d.subscribers[subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(subscriberID int64) {
	d.mu.Lock()
	delete(d.subscribers, subscriberID)
	d.mu.Unlock()
}

// StorePublisher adapts the dispatcher to the store's Publisher interface.
func StorePublisher(dispatcher *RealtimeDispatcher) store.Publisher {
	return storePublisher{dispatcher: dispatcher}
}

type storePublisher struct {
	dispatcher *RealtimeDispatcher
}

func (p storePublisher) Publish(event store.Event) {
	p.dispatcher.Publish(RealtimeMessage{
		EventType:    string(event.Type),
		Version:      event.Version,
		Notification: event.Notification,
		Timestamp:    event.Timestamp,
	})
}
