package request

import (
	"sync"
	"sync/atomic"
)

// Publisher exposes the latest value to any number of observers.
//
// Every published value is delivered to the observers subscribed at the time of
// publication, in publication order, on a single dispatch goroutine owned by the
// Publisher. A new subscriber first receives the latest value. Close releases every
// observer; nothing is delivered after it, apart from a callback already running.
type Publisher[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	latest  T
	subs    map[uint64]*subscriber[T]
	nextID  uint64
	queue   []delivery[T]
	closed  bool
	stopped chan struct{}
}

type subscriber[T any] struct {
	fn     func(T)
	active atomic.Bool
}

type delivery[T any] struct {
	value   T
	targets []*subscriber[T]
}

// Subscription is returned by Subscribe. Unsubscribe is idempotent.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops deliveries to the observer.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// NewPublisher creates a Publisher holding initial as its latest value and starts its
// dispatch goroutine.
func NewPublisher[T any](initial T) *Publisher[T] {
	p := &Publisher[T]{
		latest:  initial,
		subs:    make(map[uint64]*subscriber[T]),
		stopped: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.dispatch()
	return p
}

// Publish records v as the latest value and queues it for every current observer.
// It never blocks on observers.
func (p *Publisher[T]) Publish(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.latest = v
	if len(p.subs) == 0 {
		return
	}
	targets := make([]*subscriber[T], 0, len(p.subs))
	for _, s := range p.subs {
		targets = append(targets, s)
	}
	p.queue = append(p.queue, delivery[T]{value: v, targets: targets})
	p.cond.Signal()
}

// Latest returns the most recently published value.
func (p *Publisher[T]) Latest() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Subscribe registers fn. fn is called with the latest value, then with every value
// published afterwards. Subscribing to a closed Publisher returns an inert Subscription.
func (p *Publisher[T]) Subscribe(fn func(T)) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || fn == nil {
		return &Subscription{}
	}

	s := &subscriber[T]{fn: fn}
	s.active.Store(true)
	id := p.nextID
	p.nextID++
	p.subs[id] = s
	p.queue = append(p.queue, delivery[T]{value: p.latest, targets: []*subscriber[T]{s}})
	p.cond.Signal()

	return &Subscription{cancel: func() {
		s.active.Store(false)
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}}
}

// Subscribers returns the number of registered observers.
func (p *Publisher[T]) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close drops queued deliveries, releases all observers and stops the dispatch goroutine.
func (p *Publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, s := range p.subs {
		s.active.Store(false)
		delete(p.subs, id)
	}
	p.queue = nil
	p.cond.Broadcast()
}

// Done is closed once the dispatch goroutine has exited.
func (p *Publisher[T]) Done() <-chan struct{} {
	return p.stopped
}

func (p *Publisher[T]) dispatch() {
	defer close(p.stopped)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		d := p.queue[0]
		p.queue[0] = delivery[T]{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		for _, s := range d.targets {
			if s.active.Load() {
				s.fn(d.value)
			}
		}
	}
}
