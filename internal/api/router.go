package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(routes handlers.RouteOps, tasks handlers.TaskOps, ws http.HandlerFunc, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	routeHandler := &handlers.RouteHandler{Routes: routes}
	taskHandler := &handlers.TaskHandler{Tasks: tasks}

	r.Group(func(r chi.Router) {
		r.Use(requestLogger(log))

		r.Get("/health", handlers.Health)

		r.Route("/routes", func(r chi.Router) {
			r.Post("/", routeHandler.Create)
			r.Get("/", routeHandler.List)
			r.Get("/{routeID}", routeHandler.Get)
			r.Delete("/{routeID}", routeHandler.Delete)
			r.Post("/{routeID}/reorder", routeHandler.Reorder)
			r.Post("/{routeID}/optimize", routeHandler.Optimize)
			r.Post("/{routeID}/start", routeHandler.Start)
			r.Post("/{routeID}/finish", routeHandler.Finish)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/queue", taskHandler.Queue)
			r.Get("/next", taskHandler.Next)
			r.Put("/{orderID}/notes", taskHandler.UpdateNotes)
		})

		r.Route("/stops", func(r chi.Router) {
			r.Post("/{stopID}/start", taskHandler.StartStop)
			r.Post("/{stopID}/complete", taskHandler.CompleteStop)
			r.Post("/{stopID}/fail", taskHandler.FailStop)
		})
	})

	// Outside the logging group: /ws hijacks the connection and /metrics
	// would feed its own scrape into the histogram.
	r.Handle("/metrics", promhttp.Handler())
	if ws != nil {
		r.Get("/ws", ws)
	}

	return r
}
