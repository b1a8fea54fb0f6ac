package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gameshelf"

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Library events accepted by the event bus",
	}, []string{"type"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events dropped because the bus queue was full",
	})

	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_handler_failures_total",
		Help:      "Event handler invocations that returned an error",
	})

	broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_broadcasts_total",
		Help:      "Messages pushed to websocket clients",
	}, []string{"outcome"})

	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_active_connections",
		Help:      "Currently open websocket connections",
	})

	libraryMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "library_mutations_total",
		Help:      "Library add/update/remove operations by outcome",
	}, []string{"op", "outcome"})

	catalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_requests_total",
		Help:      "Requests made to the external game catalog",
	}, []string{"op", "outcome"})

	catalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_lookups_total",
		Help:      "Catalog cache lookups by result",
	}, []string{"result"})
)

func RecordEventPublished(eventType string) {
	eventsPublished.WithLabelValues(eventType).Inc()
}

func RecordEventDropped() {
	eventsDropped.Inc()
}

func RecordEventFailed() {
	eventsFailed.Inc()
}

func IncrementBroadcasts() {
	broadcasts.WithLabelValues("ok").Inc()
}

func IncrementBroadcastFails() {
	broadcasts.WithLabelValues("failed").Inc()
}

func IncrementConnectionCount() {
	activeConnections.Inc()
}

func DecrementConnectionCount() {
	activeConnections.Dec()
}

// RecordLibraryMutation counts one add, update or remove. outcome is "ok" or
// a short error class such as "duplicate" or "not_found".
func RecordLibraryMutation(op, outcome string) {
	libraryMutations.WithLabelValues(op, outcome).Inc()
}

func RecordCatalogRequest(op, outcome string) {
	catalogRequests.WithLabelValues(op, outcome).Inc()
}

func RecordCacheHit() {
	catalogCache.WithLabelValues("hit").Inc()
}

func RecordCacheMiss() {
	catalogCache.WithLabelValues("miss").Inc()
}
