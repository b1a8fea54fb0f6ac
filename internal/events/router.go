package events

import (
	"sync"

	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/binhbb2204/GameShelf/pkg/metrics"
)

type Handler func(event Event) error

type Filter func(event Event) bool

// Router fans an event out to every handler registered for its type.
type Router struct {
	logger   *logger.Logger
	handlers map[EventType][]Handler
	filters  []Filter
	mu       sync.RWMutex
}

func NewRouter(log *logger.Logger) *Router {
	return &Router{
		logger:   log,
		handlers: make(map[EventType][]Handler),
		filters:  make([]Filter, 0),
	}
}

func (r *Router) RegisterHandler(eventType EventType, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[eventType] = append(r.handlers[eventType], handler)
	r.logger.Info("event_handler_registered", "event_type", eventType)
}

// AddFilter installs a predicate every event must pass before any handler runs.
func (r *Router) AddFilter(filter Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filters = append(r.filters, filter)
}

// Route runs the matching handlers concurrently and waits for all of them.
func (r *Router) Route(event Event) {
	if !r.shouldProcess(event) {
		r.logger.Debug("event_filtered", "event_id", event.ID, "type", event.Type)
		return
	}

	r.mu.RLock()
	handlers := r.handlers[event.Type]
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.logger.Debug("no_handlers_for_event", "event_type", event.Type)
		return
	}

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(event); err != nil {
				metrics.RecordEventFailed()
				r.logger.Error("handler_error",
					"event_id", event.ID,
					"event_type", event.Type,
					"error", err.Error())
			}
		}(handler)
	}
	wg.Wait()

	r.logger.Debug("event_routed",
		"event_id", event.ID,
		"event_type", event.Type,
		"handlers_count", len(handlers))
}

func (r *Router) shouldProcess(event Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, filter := range r.filters {
		if !filter(event) {
			return false
		}
	}
	return true
}
