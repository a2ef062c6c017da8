package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("resource table closed")

// Table maps handles to values with kind tagging, slot reuse and observers.
type Table struct {
	entries   []entry
	freeList  []int
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	value any
	gen   uint32
	kind  Kind
	valid bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

// Insert stores a value and returns its handle.
func (t *Table) Insert(kind Kind, value any) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	var slot int
	if n := len(t.freeList); n > 0 {
		slot = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		if len(t.entries) >= slotMask {
			t.mu.Unlock()
			return 0, errors.New("resource table full")
		}
		t.entries = append(t.entries, entry{})
		slot = len(t.entries) - 1
	}

	e := &t.entries[slot]
	e.gen = (e.gen + 1) & genMask
	e.kind = kind
	e.value = value
	e.valid = true
	handle := makeHandle(slot, e.gen)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: handle, Kind: kind, Value: value})
	return handle, nil
}

func (t *Table) lookup(handle Handle) (*entry, bool) {
	if handle == 0 {
		return nil, false
	}
	slot := handle.slot()
	if slot < 0 || slot >= len(t.entries) {
		return nil, false
	}
	e := &t.entries[slot]
	if !e.valid || e.gen != handle.gen() {
		return nil, false
	}
	return e, true
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.lookup(handle)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// GetTyped retrieves a value only if it has the expected kind.
func (t *Table) GetTyped(handle Handle, kind Kind) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.lookup(handle)
	if !ok || e.kind != kind {
		return nil, false
	}
	return e.value, true
}

// Remove drops a resource and returns (value, true) if it was live.
// Values implementing Dropper are dropped after the slot is released.
func (t *Table) Remove(handle Handle) (any, bool) {
	t.mu.Lock()
	e, ok := t.lookup(handle)
	if !ok {
		t.mu.Unlock()
		return nil, false
	}
	value, kind := e.value, e.kind
	e.valid = false
	e.value = nil
	t.freeList = append(t.freeList, handle.slot())
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{Type: EventDropped, Handle: handle, Kind: kind, Value: value})
	return value, true
}

// Len returns the number of live resources.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// LenKind returns the number of live resources of one kind.
func (t *Table) LenKind(kind Kind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid && e.kind == kind {
			count++
		}
	}
	return count
}

// Each iterates over live resources in slot order until fn returns false.
// fn must not call back into the table.
func (t *Table) Each(fn func(Handle, Kind, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(makeHandle(i, e.gen), e.kind, e.value) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops every live resource and rejects further inserts.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	var handles []Handle
	for i, e := range t.entries {
		if e.valid {
			handles = append(handles, makeHandle(i, e.gen))
		}
	}
	t.mu.Unlock()

	for _, h := range handles {
		t.Remove(h)
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Typed is a type-safe view over the resources of one kind.
type Typed[T any] struct {
	table *Table
	kind  Kind
}

// NewTyped returns a view of table restricted to kind.
func NewTyped[T any](table *Table, kind Kind) *Typed[T] {
	return &Typed[T]{table: table, kind: kind}
}

// Insert adds a value and returns its handle.
func (t *Typed[T]) Insert(value T) (Handle, error) {
	return t.table.Insert(t.kind, value)
}

// Get retrieves a value by handle.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	v, ok := t.table.GetTyped(handle, t.kind)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Remove drops a resource and returns its value.
func (t *Typed[T]) Remove(handle Handle) (T, bool) {
	var zero T
	if _, ok := t.table.GetTyped(handle, t.kind); !ok {
		return zero, false
	}
	v, ok := t.table.Remove(handle)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Len returns the number of live resources of this kind.
func (t *Typed[T]) Len() int {
	return t.table.LenKind(t.kind)
}
