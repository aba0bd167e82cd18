// Package spine implements the Spine Controller of §4.5: after a stream
// ends, decide whether to launch another one without user input, subject
// to an ordered continuation list and an ordered guard-rail list.
package spine

// Notification is a single entry surfaced in the spine panel: an
// unprocessed auto-continuation trigger or a guard-rail block.
type Notification struct {
	// SourceTag identifies the guard-rail or continuation instance that
	// produced this notification, used for the idempotent-block rule of
	// §4.5 ("a single notification per guard-rail instance... via a
	// source tag").
	SourceTag string
	Message   string
	Processed bool
}

// Bus is an in-process publish/subscribe point for spine notifications.
// This is a single-process rendering of the teacher's `notifier.Notifier`
// pub/sub shape: no cross-process transport is needed since the spine
// panel and its subscribers (mainly the render layer) live in the same
// event loop.
type Bus struct {
	handlers []func(Notification)
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler to be called synchronously, in registration
// order, every time Publish fires. Returns an unsubscribe function.
func (b *Bus) Subscribe(handler func(Notification)) func() {
	b.handlers = append(b.handlers, handler)
	idx := len(b.handlers) - 1
	return func() {
		b.handlers[idx] = nil
	}
}

// Publish dispatches n to every live subscriber in order.
func (b *Bus) Publish(n Notification) {
	for _, h := range b.handlers {
		if h != nil {
			h(n)
		}
	}
}

// Pending is the append-only log of notifications the spine panel
// renders, owned by State. Guard-rail blocks are deduplicated by
// SourceTag so a stuck guard-rail does not spam the panel on every tick.
type Pending struct {
	items []Notification
}

// Add appends n, unless an unprocessed notification with the same
// SourceTag already exists (the idempotent-block rule).
func (p *Pending) Add(n Notification) {
	for _, existing := range p.items {
		if existing.SourceTag == n.SourceTag && !existing.Processed {
			return
		}
	}
	p.items = append(p.items, n)
}

// Unprocessed returns every notification not yet marked processed.
func (p *Pending) Unprocessed() []Notification {
	var out []Notification
	for _, n := range p.items {
		if !n.Processed {
			out = append(out, n)
		}
	}
	return out
}

// MarkAllProcessed flags every current notification as processed, called
// once the Notifications continuation has consumed them into a synthetic
// message.
func (p *Pending) MarkAllProcessed() {
	for i := range p.items {
		p.items[i].Processed = true
	}
}

// All returns every notification recorded, for panel rendering.
func (p *Pending) All() []Notification {
	return append([]Notification(nil), p.items...)
}
