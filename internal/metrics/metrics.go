package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_routes_created_total",
		Help: "Routes created by dispatchers",
	})
	routeOptimizations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_route_optimizations_total",
		Help: "Auto-optimize runs over route sequences",
	})
	attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_attempts_total",
		Help: "Delivery attempt transitions by outcome",
	}, []string{"outcome"})
	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notifications_total",
		Help: "Customer notifications by result",
	}, []string{"result"})
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_change_events_published_total",
		Help: "Change events published to the realtime bus",
	})

	// HTTPDuration is observed by the API middleware.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_http_request_duration_seconds",
		Help:    "End-to-end HTTP request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func IncrementRoutesCreated()      { routesCreated.Inc() }
func IncrementRouteOptimizations() { routeOptimizations.Inc() }

func IncrementAttemptsStarted()   { attempts.WithLabelValues("started").Inc() }
func IncrementAttemptsCompleted() { attempts.WithLabelValues("completed").Inc() }
func IncrementAttemptsFailed()    { attempts.WithLabelValues("failed").Inc() }

func IncrementNotificationsSent()   { notifications.WithLabelValues("sent").Inc() }
func IncrementNotificationsFailed() { notifications.WithLabelValues("failed").Inc() }

func IncrementEventsPublished() { eventsPublished.Inc() }
