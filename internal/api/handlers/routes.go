package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"delivery-dispatch-service/internal/api/dto"
	"delivery-dispatch-service/internal/domain"
)

// RouteOps is the slice of the route service the HTTP layer needs.
type RouteOps interface {
	Create(ctx context.Context, actor domain.Actor, day time.Time, driver string, orderIDs []int64) (*domain.Route, error)
	Get(ctx context.Context, id int64) (*domain.Route, error)
	ListByDate(ctx context.Context, day time.Time) ([]*domain.Route, error)
	Reorder(ctx context.Context, actor domain.Actor, routeID int64, orderedStopIDs []int64) error
	AutoOptimize(ctx context.Context, actor domain.Actor, routeID int64) (*domain.Route, error)
	Start(ctx context.Context, actor domain.Actor, routeID int64) error
	Finish(ctx context.Context, actor domain.Actor, routeID int64) error
	Delete(ctx context.Context, actor domain.Actor, routeID int64) error
}

type RouteHandler struct {
	Routes RouteOps
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.Driver == "" {
		writeError(w, r, http.StatusBadRequest, "driver is required")
		return
	}

	route, err := h.Routes.Create(r.Context(), actorFrom(r), day, req.Driver, req.OrderIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromRoute(route))
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}
	route, err := h.Routes.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromRoute(route))
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	day, err := dayFrom(r, "date")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	routes, err := h.Routes.ListByDate(r.Context(), day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, route := range routes {
		res.Routes = append(res.Routes, dto.FromRoute(route))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}

	var req dto.ReorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.Routes.Reorder(r.Context(), actorFrom(r), id, req.StopIDs); err != nil {
		writeDomainError(w, r, err)
		return
	}

	route, err := h.Routes.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromRoute(route))
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}
	route, err := h.Routes.AutoOptimize(r.Context(), actorFrom(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromRoute(route))
}

func (h *RouteHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Routes.Start)
}

func (h *RouteHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Routes.Finish)
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}
	if err := h.Routes.Delete(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Actor, int64) error) {
	id, ok := routeID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	route, err := h.Routes.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromRoute(route))
}

func routeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "routeID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid route id")
		return 0, false
	}
	return id, true
}
