package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Op is the kind of row mutation
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is a single row-change event. Fields carries only the columns that
// changed; consumers patch them in rather than replacing the whole row.
type Change struct {
	Table   string                 `json:"table"`
	Op      Op                     `json:"op"`
	GroupID uuid.UUID              `json:"group_id"`
	RowID   string                 `json:"row_id"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Scope selects which changes a subscriber receives. The zero value matches
// everything; setting GroupID or Table narrows the feed.
type Scope struct {
	GroupID uuid.UUID
	Table   string
}

// GroupScope matches every change belonging to one group
func GroupScope(groupID uuid.UUID) Scope {
	return Scope{GroupID: groupID}
}

// Matches reports whether a change falls inside the scope
func (s Scope) Matches(c Change) bool {
	if s.GroupID != uuid.Nil && s.GroupID != c.GroupID {
		return false
	}
	if s.Table != "" && s.Table != c.Table {
		return false
	}
	return true
}

type subscriber struct {
	scope Scope
	ch    chan Change
}

// Bus fans row-change events out to scoped subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event and recovers
// through its next full refetch, matching the at-least-once-or-refresh
// contract of the sync layer.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe registers a scoped subscriber. The returned cancel func must be
// called when the consuming view goes away; subscriptions are never cleaned
// up implicitly.
func (b *Bus) Subscribe(scope Scope, buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{scope: scope, ch: ch}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a change to every subscriber whose scope matches
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.scope.Matches(c) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			slog.Warn("realtime subscriber lagging, dropping change",
				"table", c.Table, "row_id", c.RowID)
		}
	}
}

// SubscriberCount returns the number of live subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
