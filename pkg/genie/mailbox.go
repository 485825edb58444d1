package genie

import (
	"sync"
	"sync/atomic"
)

// MailboxSize is the number of slots of a Mailbox. It must be a power of two.
const MailboxSize = 16

// Mailbox is a bounded ring buffer handing items from the listener to callers.
// There is exactly one producer (the listener), which owns head and the slot
// contents between tail and head. Consumers own tail and are serialised by
// their own mutex, so pushing never waits for a reader.
//
// head and tail run freely and are masked on slot access: the mailbox is empty
// when head == tail and full when head-tail == MailboxSize.
type Mailbox[T any] struct {
	slots [MailboxSize]T
	head  atomic.Uint32
	tail  atomic.Uint32

	dropped atomic.Uint64
	pop     sync.Mutex
}

// Push stores item, or drops it and returns false if the mailbox is full.
// It must only be called from the producer goroutine.
func (m *Mailbox[T]) Push(item T) bool {
	head := m.head.Load()
	if head-m.tail.Load() == MailboxSize {
		m.dropped.Add(1)
		return false
	}
	m.slots[head&(MailboxSize-1)] = item
	m.head.Store(head + 1)
	return true
}

// TryPop removes the oldest item, if any
func (m *Mailbox[T]) TryPop() (item T, ok bool) {
	m.pop.Lock()
	defer m.pop.Unlock()
	return m.tryPop()
}

func (m *Mailbox[T]) tryPop() (item T, ok bool) {
	tail := m.tail.Load()
	if tail == m.head.Load() {
		return item, false
	}
	var zero T
	item = m.slots[tail&(MailboxSize-1)]
	m.slots[tail&(MailboxSize-1)] = zero
	m.tail.Store(tail + 1)
	return item, true
}

// Available reports whether at least one item is waiting
func (m *Mailbox[T]) Available() bool {
	return m.head.Load() != m.tail.Load()
}

// Len returns the number of waiting items
func (m *Mailbox[T]) Len() int {
	tail := m.tail.Load()
	return int(m.head.Load() - tail)
}

// Drain empties the mailbox and returns how many items were discarded
func (m *Mailbox[T]) Drain() int {
	m.pop.Lock()
	defer m.pop.Unlock()
	n := 0
	for {
		if _, ok := m.tryPop(); !ok {
			return n
		}
		n++
	}
}

// Dropped returns the number of items lost because the mailbox was full
func (m *Mailbox[T]) Dropped() uint64 {
	return m.dropped.Load()
}
