package events

import (
	"sync"
	"sync/atomic"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/metrics"
)

const queueSize = 1000

// Broadcaster pushes an event to every live connection of one user.
type Broadcaster interface {
	BroadcastToUser(userID string, event Event)
}

// Publisher is the write side of the bus used by services.
type Publisher interface {
	Publish(event Event)
}

// Bus queues events and delivers them from a single goroutine, first to the
// registered broadcasters and then to the router's handlers.
type Bus struct {
	logger       *logger.Logger
	router       *Router
	broadcasters []Broadcaster
	mu           sync.RWMutex
	eventChan    chan Event
	stopChan     chan struct{}
	done         chan struct{}
	stopOnce     sync.Once
	started      atomic.Bool
}

func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		logger:    log,
		router:    NewRouter(log),
		eventChan: make(chan Event, queueSize),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (b *Bus) Router() *Router {
	return b.router
}

func (b *Bus) Start() {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	b.logger.Info("event_bus_started")
	go b.processEvents()
}

// Stop ends delivery and waits for the worker to exit. Queued events that
// were not yet delivered are discarded.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		b.logger.Info("event_bus_stopping")
		close(b.stopChan)
		if b.started.Load() {
			<-b.done
		}
	})
}

func (b *Bus) AddBroadcaster(bc Broadcaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasters = append(b.broadcasters, bc)
	b.logger.Info("broadcaster_added", "count", len(b.broadcasters))
}

// Publish never blocks; a full queue drops the event.
func (b *Bus) Publish(event Event) {
	select {
	case b.eventChan <- event:
		metrics.RecordEventPublished(string(event.Type))
		b.logger.Debug("event_queued", "type", event.Type, "user_id", event.UserID)
	default:
		metrics.RecordEventDropped()
		b.logger.Warn("event_channel_full", "type", event.Type, "user_id", event.UserID)
	}
}

func (b *Bus) processEvents() {
	defer close(b.done)
	for {
		select {
		case event := <-b.eventChan:
			b.deliver(event)
		case <-b.stopChan:
			b.logger.Info("event_bus_stopped")
			return
		}
	}
}

func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	broadcasters := b.broadcasters
	b.mu.RUnlock()

	for _, bc := range broadcasters {
		bc.BroadcastToUser(event.UserID, event)
	}

	b.router.Route(event)
}
