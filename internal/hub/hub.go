package hub

import (
	"log/slog"
	"sync"
)

// Hub is a generic, concurrent broadcast of values. It remembers the latest
// value and delivers it, followed by every later value, to each subscriber.
//
// Publish never blocks: every subscriber owns an unbounded queue drained by
// its own goroutine, so a slow reader delays only itself and never misses
// or merges values.
type Hub[T any] struct {
	mu          sync.Mutex
	latest      T
	subscribers map[*Subscription[T]]struct{}
	closed      bool
	logger      *slog.Logger
}

// New creates a Hub whose latest value is initial.
func New[T any](initial T) *Hub[T] {
	return &Hub[T]{
		latest:      initial,
		subscribers: make(map[*Subscription[T]]struct{}),
		logger:      slog.Default().With("service", "hub"),
	}
}

// Publish records v as the latest value and queues it for every subscriber.
// Publishing on a closed hub is a no-op.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.latest = v
	for s := range h.subscribers {
		s.enqueue(v)
	}
}

// Latest returns the most recently published value.
func (h *Hub[T]) Latest() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Subscribe registers a new subscriber. Its channel first yields the latest
// value, then every value published afterwards, in publish order. On a
// closed hub the returned subscription's channel is already closed.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	s := newSubscription(h)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(s.done)
		return s
	}
	s.enqueue(h.latest)
	h.subscribers[s] = struct{}{}
	h.logger.Debug("New subscriber registered", "total_subscribers", len(h.subscribers))
	return s
}

// Close unregisters every subscriber and closes their channels. Values still
// queued for a subscriber are dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subscribers {
		s.stop()
		delete(h.subscribers, s)
	}
	h.logger.Debug("Hub closed")
}

func (h *Hub[T]) remove(s *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		h.logger.Debug("Subscriber unregistered", "total_subscribers", len(h.subscribers))
	}
	s.stop()
}

// Subscription is one consumer's view of a Hub.
type Subscription[T any] struct {
	hub *Hub[T]
	out chan T

	mu    sync.Mutex
	queue []T

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSubscription[T any](h *Hub[T]) *Subscription[T] {
	s := &Subscription[T]{
		hub:  h,
		out:  make(chan T),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

// C returns the channel values are delivered on. It is closed when the
// subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Unsubscribe stops delivery and closes the channel returned by C.
func (s *Subscription[T]) Unsubscribe() {
	s.hub.remove(s)
}

func (s *Subscription[T]) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Subscription[T]) enqueue(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}
	v := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return v, true
}

func (s *Subscription[T]) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			v, ok := s.pop()
			if !ok {
				break
			}
			select {
			case s.out <- v:
			case <-s.done:
				return
			}
		}
	}
}
