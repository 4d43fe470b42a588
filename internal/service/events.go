package service

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Post events
	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
	EventPostDeleted EventType = "post.deleted"
	EventPostJoined  EventType = "post.joined"
	EventPostLeft    EventType = "post.left"

	// Character events
	EventCharacterCreated EventType = "character.created"
	EventCharacterUpdated EventType = "character.updated"
	EventCharacterDeleted EventType = "character.deleted"

	// Delivered to one user when a fire-and-forget intent fails
	EventDispatchFailed EventType = "dispatch.failed"

	// System events
	EventHeartbeat EventType = "heartbeat"
)

// TopicBoard carries every board change
const TopicBoard = "board"

// Event represents a server-sent event
type Event struct {
	Type  EventType   `json:"type"`
	Data  interface{} `json:"data"`
	Topic string      `json:"-"` // routing only
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// Subscriber represents a connected SSE client
type Subscriber struct {
	ID     string
	Topic  string
	UserID string
	Events chan *Event
	Done   chan struct{}
}

// EventHub manages SSE subscriptions and event broadcasting
type EventHub struct {
	mu              sync.RWMutex
	subscribers     map[string]map[string]*Subscriber // topic -> subscriberID -> subscriber
	userSubscribers map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	heartbeat       *time.Ticker
	done            chan struct{}
	closeOnce       sync.Once
}

// NewEventHub creates a new event hub with a 30 second heartbeat
func NewEventHub() *EventHub {
	return newEventHub(30 * time.Second)
}

func newEventHub(interval time.Duration) *EventHub {
	hub := &EventHub{
		subscribers:     make(map[string]map[string]*Subscriber),
		userSubscribers: make(map[string]map[string]*Subscriber),
		done:            make(chan struct{}),
	}
	hub.heartbeat = time.NewTicker(interval)
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a subscriber to a topic. A non-empty userID also
// registers it for events directed at that user.
func (h *EventHub) Subscribe(topic, userID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		Topic:  topic,
		UserID: userID,
		Events: make(chan *Event, 100),
		Done:   make(chan struct{}),
	}

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[string]*Subscriber)
	}
	h.subscribers[topic][subscriberID] = sub

	if userID != "" {
		if h.userSubscribers[userID] == nil {
			h.userSubscribers[userID] = make(map[string]*Subscriber)
		}
		h.userSubscribers[userID][subscriberID] = sub
	}
	return sub
}

// Unsubscribe removes a subscriber and closes its channels
func (h *EventHub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicSubs, ok := h.subscribers[sub.Topic]
	if !ok {
		return
	}
	if _, ok := topicSubs[sub.ID]; !ok {
		return
	}

	close(sub.Done)
	close(sub.Events)
	delete(topicSubs, sub.ID)
	if len(topicSubs) == 0 {
		delete(h.subscribers, sub.Topic)
	}

	if userSubs, ok := h.userSubscribers[sub.UserID]; ok {
		delete(userSubs, sub.ID)
		if len(userSubs) == 0 {
			delete(h.userSubscribers, sub.UserID)
		}
	}
}

// Publish sends an event to all subscribers of its topic
func (h *EventHub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[event.Topic] {
		select {
		case sub.Events <- event:
		default:
			// Buffer full, skip this subscriber
		}
	}
}

// SendToUser sends an event to every subscription held by one user
func (h *EventHub) SendToUser(userID string, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.userSubscribers[userID] {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			h.mu.RLock()
			for topic, topicSubs := range h.subscribers {
				event := &Event{
					Type:  EventHeartbeat,
					Topic: topic,
					Data: map[string]string{
						"timestamp": time.Now().UTC().Format(time.RFC3339),
					},
				}
				for _, sub := range topicSubs {
					select {
					case sub.Events <- event:
					default:
					}
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the heartbeat and disconnects every subscriber
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()

		for topic, topicSubs := range h.subscribers {
			for _, sub := range topicSubs {
				close(sub.Done)
				close(sub.Events)
			}
			delete(h.subscribers, topic)
		}
		h.userSubscribers = make(map[string]map[string]*Subscriber)
	})
}

// SubscriberCount returns the number of subscribers for a topic
func (h *EventHub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// NewBoardEvent creates an event on the board topic
func NewBoardEvent(eventType EventType, data interface{}) *Event {
	return &Event{Type: eventType, Topic: TopicBoard, Data: data}
}
