package resource

// Handle is an opaque reference to a resource in a table.
// Handle 0 is reserved and always invalid. The low 20 bits hold the slot,
// the high bits a generation so a stale handle never aliases a reused slot.
type Handle uint32

const (
	slotBits = 20
	slotMask = 1<<slotBits - 1
	genMask  = 1<<(32-slotBits) - 1
)

func makeHandle(slot int, gen uint32) Handle {
	return Handle(gen&genMask)<<slotBits | Handle(slot+1)
}

func (h Handle) slot() int {
	return int(h&slotMask) - 1
}

func (h Handle) gen() uint32 {
	return uint32(h>>slotBits) & genMask
}

// Kind tags what a handle refers to.
type Kind uint8

const (
	KindContext Kind = iota + 1
	KindSocket
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindSocket:
		return "socket"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop()
}
