// Package notifier carries the cart count from whatever mutated the cart to
// whatever displays it (header badge, mini-cart), without either side knowing
// about the other. One notifier instance is owned by the application context
// and injected where needed; there is no package-level global.
package notifier

import "sync"

type handler func(count int)

type CartCountNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]handler
}

func NewCartCountNotifier() *CartCountNotifier {
	return &CartCountNotifier{subs: make(map[int]handler)}
}

// Subscribe registers fn and returns an unsubscribe func. fn is invoked
// synchronously from Publish.
func (n *CartCountNotifier) Subscribe(fn func(count int)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish fans count out to all current subscribers, synchronously and in no
// particular order. Callers must only publish counts confirmed by the server.
func (n *CartCountNotifier) Publish(count int) {
	n.mu.Lock()
	fns := make([]handler, 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(count)
	}
}

// Subscribers reports current membership (for tests and debug logging).
func (n *CartCountNotifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
