package events

// EventCollector is embedded in aggregates to buffer the events raised while
// they are built, until the application layer drains and publishes them.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers one or more events in raise order.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// Events returns the buffered events without draining them.
func (c *EventCollector) Events() []DomainEvent {
	return c.pending
}

// ClearEvents drains the buffer.
func (c *EventCollector) ClearEvents() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
