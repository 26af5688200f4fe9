/*
Package events provides an in-memory publish/subscribe bus for container
lifecycle notifications.

A Broker fans out Events to any number of Subscribers over buffered
channels. Delivery to subscribers never blocks: a subscriber whose buffer
is full simply misses the event rather than stalling the broker. Publish
itself queues onto a 100-event broker buffer and waits only while that
buffer is full (or returns at once after Stop). This suits things
that want to react to or observe state changes (logging, metrics, a
future event-stream API) rather than anything that must not miss an
event.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Println(event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:     events.EventContainerStarted,
		Message:  "container started",
		Metadata: map[string]string{"container_id": id},
	})
*/
package events
