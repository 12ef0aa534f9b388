package host

import (
	"sync"

	"github.com/phobologic/jdsource/internal/model"
)

// Render option keys. A change to any of them invalidates synthesized text.
const (
	KeyEscapeUnicode      = "escapeUnicode"
	KeyRealignLineNumbers = "realignLineNumbers"
	KeyShowLineNumbers    = "showLineNumbers"
	KeyShowMetadata       = "showMetadata"

	// KeyRender marks a batch change of render flags. Value holds the
	// changed keys.
	KeyRender = "render"
)

// IsRelevant reports whether a change to key requires re-synthesis.
func IsRelevant(key string) bool {
	switch key {
	case KeyEscapeUnicode, KeyRealignLineNumbers, KeyShowLineNumbers, KeyShowMetadata, KeyRender:
		return true
	}
	return false
}

// Event describes one option change. Render is the snapshot after the change.
type Event struct {
	Key    string
	Value  any
	Render model.RenderOptions
}

// Relevant reports whether the event requires re-synthesis.
func (e Event) Relevant() bool { return IsRelevant(e.Key) }

// Events is a fan-out bus. Publishing never blocks: a subscriber whose
// buffer is full misses the event.
type Events struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewEvents returns an empty bus.
func NewEvents() *Events {
	return &Events{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// function unsubscribes and closes the channel.
func (e *Events) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber and returns how many received it.
func (e *Events) Publish(ev Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	delivered := 0
	for _, ch := range e.subs {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}
