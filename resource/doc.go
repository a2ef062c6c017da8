// Package resource provides handle tables for engine-owned objects.
//
// Engines hand out integer handles for contexts, sockets and messages instead
// of pointers. A Table maps those handles to Go values:
//
//	table := resource.NewTable()
//
//	h, err := table.Insert(resource.KindSocket, sock)
//	v, ok := table.GetTyped(h, resource.KindSocket)
//	v, ok = table.Remove(h) // second Remove returns false
//
// Slots are reused, but each reuse bumps a generation stored in the handle,
// so a handle kept after Remove never resolves to the slot's next occupant.
//
// # Observers
//
// Observers see every insert and removal in order, which is how tests assert
// the teardown order of sockets and contexts:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//		if e.Type == resource.EventDropped {
//			log.Printf("%s %d dropped", e.Kind, e.Handle)
//		}
//	}))
package resource
