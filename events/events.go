// Package events fans match lifecycle events out to host presentation
// layers (scoreboards, tab lists, lobby signs) so they can observe matches
// without polling the registry.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const shutdownPollInterval = 200

const (
	KindPlayerJoined   = "player_joined"
	KindPlayerLeft     = "player_left"
	KindCountdown      = "countdown"
	KindCountdownAbort = "countdown_cancelled"
	KindMatchStarted   = "match_started"
	KindBedBroken      = "bed_broken"
	KindElimination    = "elimination"
	KindMatchEnded     = "match_ended"
)

// Event is one match lifecycle occurrence. Payload must be JSON
// serializable.
type Event struct {
	Match   string `json:"match"`
	Arena   string `json:"arena"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

// subscriberAndDoneChan pairs a subscriber with a channel used to signal
// the registration has been picked up by the run loop.
type subscriberAndDoneChan struct {
	id       string
	ch       chan []byte
	doneChan chan bool
}

type Hub struct {
	subscribers     map[string]chan []byte
	broadcast       chan []byte
	getAmountOfSubs chan chan int
	register        chan subscriberAndDoneChan
	unregister      chan subscriberAndDoneChan
	shutdown        chan bool
	started         chan struct{}
	startedOnce     sync.Once
	isRunning       atomic.Bool
}

func NewHub() *Hub {
	hub := &Hub{
		subscribers:     map[string]chan []byte{},
		broadcast:       make(chan []byte, 256),
		getAmountOfSubs: make(chan chan int),
		register:        make(chan subscriberAndDoneChan),
		unregister:      make(chan subscriberAndDoneChan),
		shutdown:        make(chan bool),
		started:         make(chan struct{}),
		isRunning:       atomic.Bool{},
	}
	go func() {
		hub.Run()
	}()
	// Callers may publish or shut down immediately after construction.
	<-hub.started
	return hub
}

func (h *Hub) SubscriberCount() int {
	countChan := make(chan int)
	h.getAmountOfSubs <- countChan
	return <-countChan
}

// Publish marshals the event and fans it out. Subscribers that cannot keep
// up have events dropped rather than stalling the match that emitted them.
func (h *Hub) Publish(event Event) error {
	if !h.isRunning.Load() {
		return eris.New("event hub is not running")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "must use a json serializable payload for events")
	}
	select {
	case h.broadcast <- data:
	default:
		log.Logger.Warn().Msg("event hub broadcast queue is full; dropping event")
	}
	return nil
}

// Subscribe registers a subscriber and returns its delivery channel.
// Events arrive as marshalled Event JSON.
func (h *Hub) Subscribe(id string, buffer int) <-chan []byte {
	doneChan := make(chan bool)
	ch := make(chan []byte, buffer)
	h.register <- subscriberAndDoneChan{id: id, ch: ch, doneChan: doneChan}
	<-doneChan
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	doneChan := make(chan bool)
	h.unregister <- subscriberAndDoneChan{id: id, doneChan: doneChan}
	<-doneChan
}

func (h *Hub) Shutdown() {
	if !h.isRunning.Load() {
		return
	}
	h.shutdown <- true
	// block until the loop fully exits.
	for {
		if !h.isRunning.Load() {
			break
		}
		time.Sleep(shutdownPollInterval * time.Millisecond)
	}
}

func (h *Hub) Run() {
	if !h.isRunning.CompareAndSwap(false, true) {
		return
	}
	h.startedOnce.Do(func() { close(h.started) })
	removeSubscriber := func(id string) {
		if ch, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(ch)
		}
	}
Loop:
	for h.isRunning.Load() {
		select {
		case countChan := <-h.getAmountOfSubs:
			countChan <- len(h.subscribers)
		case sub := <-h.register:
			h.subscribers[sub.id] = sub.ch
			sub.doneChan <- true
		case sub := <-h.unregister:
			removeSubscriber(sub.id)
			sub.doneChan <- true
		case data := <-h.broadcast:
			for id, ch := range h.subscribers {
				select {
				case ch <- data:
				default:
					log.Logger.Warn().Str("subscriber", id).Msg("subscriber is not keeping up; dropping event")
				}
			}
		case <-h.shutdown:
			for id := range h.subscribers {
				removeSubscriber(id)
			}
			break Loop
		}
	}
	h.isRunning.Store(false)
}
