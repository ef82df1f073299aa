package events_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"gotest.tools/v3/assert"

	"github.com/arena-labs/bedwars-engine/events"
)

func TestEventsReachEverySubscriber(t *testing.T) {
	// broadcast 5 events to 5 subscribers means 25 deliveries.
	numberToTest := 5
	hub := events.NewHub()
	defer hub.Shutdown()

	channels := make([]<-chan []byte, numberToTest)
	for i := range channels {
		channels[i] = hub.Subscribe(fmt.Sprintf("scoreboard-%d", i), 16)
	}
	assert.Equal(t, numberToTest, hub.SubscriberCount())

	var wg sync.WaitGroup
	for i := 0; i < numberToTest; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := hub.Publish(events.Event{
				Match: fmt.Sprintf("match-%d", i),
				Arena: "stronghold",
				Kind:  events.KindPlayerJoined,
			})
			assert.NilError(t, err)
		}()
	}
	wg.Wait()

	for _, ch := range channels {
		for j := 0; j < numberToTest; j++ {
			raw := <-ch
			var got events.Event
			assert.NilError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, "stronghold", got.Arena)
			assert.Equal(t, events.KindPlayerJoined, got.Kind)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := events.NewHub()
	defer hub.Shutdown()

	ch := hub.Subscribe("tab-list", 1)
	hub.Unsubscribe("tab-list")
	_, open := <-ch
	assert.Check(t, !open, "unsubscribed channel must be closed")
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestPublishAfterShutdownFails(t *testing.T) {
	hub := events.NewHub()
	hub.Shutdown()
	err := hub.Publish(events.Event{Kind: events.KindMatchEnded})
	assert.ErrorContains(t, err, "not running")
}
