package draco

import "sync"

// Event is a client-lifecycle event as reported to ClientEventService.
type Event struct {
	Name string
	Args []any
	// Err is set when reporting the event to the server failed.
	Err error
}

// Binding represents a subscription to lifecycle events with a given name.
// Bindings provide two ways to consume events: Next() for blocking retrieval
// and To() for handler-based processing.
type Binding struct {
	client      *Client
	eventName   string
	handlerChan chan *Event
	unbindOnce  sync.Once
}

func newBinding(client *Client, eventName string) *Binding {
	b := &Binding{
		client:      client,
		eventName:   eventName,
		handlerChan: make(chan *Event, 100),
	}

	client.bindingsMu.Lock()
	defer client.bindingsMu.Unlock()
	if _, ok := client.bindings[eventName]; !ok {
		client.bindings[eventName] = make(map[*Binding]chan *Event)
	}
	client.bindings[eventName][b] = b.handlerChan

	return b
}

// Next blocks until the next event arrives and returns it. It returns nil
// once the binding has been unbound.
func (b *Binding) Next() *Event {
	return <-b.handlerChan
}

// To spawns a goroutine that calls the handler for each event.
// The goroutine exits when the binding is unbound.
func (b *Binding) To(handler func(event *Event)) *Binding {
	go func() {
		for event := range b.handlerChan {
			handler(event)
		}
	}()
	return b
}

// Unbind unsubscribes from events and frees resources. It is safe to call
// more than once.
func (b *Binding) Unbind() {
	b.unbindOnce.Do(func() {
		b.client.bindingsMu.Lock()
		defer b.client.bindingsMu.Unlock()
		delete(b.client.bindings[b.eventName], b)
		if len(b.client.bindings[b.eventName]) == 0 {
			delete(b.client.bindings, b.eventName)
		}
		close(b.handlerChan)
	})
}
