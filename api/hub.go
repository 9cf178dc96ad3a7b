package api

import (
	"log"
	"sync"

	"github.com/matt-g-everett/ledrace/race"
)

// subscriberBuffer is about two seconds of frames at 60fps.
const subscriberBuffer = 120

// Subscriber receives encoded frame envelopes from a Hub.
type Subscriber struct {
	C chan []byte
}

// Hub keeps the latest frame of the race and fans every frame out to its
// subscribers. Slow subscribers miss frames rather than holding up the race.
type Hub struct {
	plan *race.Plan

	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	latest      *FrameMessage
}

// NewHub creates a Hub for plan.
func NewHub(plan *race.Plan) *Hub {
	return &Hub{
		plan:        plan,
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{C: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s. It is safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	delete(h.subscribers, s)
	h.mu.Unlock()
}

// SubscriberCount returns the number of subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Latest returns the last frame seen, or false before the race starts.
func (h *Hub) Latest() (FrameMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return FrameMessage{}, false
	}
	return *h.latest, true
}

// ObserveFrame records the frame and sends it to every subscriber.
func (h *Hub) ObserveFrame(frameIndex int, states []race.FrameState) {
	msg := &FrameMessage{
		Frame:    frameIndex,
		Finished: h.plan.Finished(frameIndex),
		States:   states,
	}
	b, err := Encode(MsgFrame, msg)
	if err != nil {
		log.Printf("api: encode frame %d: %v", frameIndex, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = msg
	for s := range h.subscribers {
		select {
		case s.C <- b:
		default:
		}
	}
}
