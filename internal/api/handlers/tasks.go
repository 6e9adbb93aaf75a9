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

// TaskOps is the slice of the task service the HTTP layer needs.
type TaskOps interface {
	StartStop(ctx context.Context, actor domain.Actor, stopID int64) error
	CompleteStop(ctx context.Context, actor domain.Actor, stopID int64) error
	FailStop(ctx context.Context, actor domain.Actor, stopID int64) error
	Queue(ctx context.Context, day time.Time) ([]*domain.DeliveryTask, error)
	Next(ctx context.Context, day time.Time) (*domain.DeliveryTask, error)
	UpdateNotes(ctx context.Context, actor domain.Actor, orderID int64, notes string) error
}

type TaskHandler struct {
	Tasks TaskOps
}

// Queue returns today's actionable tasks in dispatch order: fresh attempts
// first, failed attempts demoted to the back.
func (h *TaskHandler) Queue(w http.ResponseWriter, r *http.Request) {
	day, err := dayFrom(r, "date")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	tasks, err := h.Tasks.Queue(r.Context(), day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.QueueResponse{Tasks: make([]dto.TaskResponse, 0, len(tasks))}
	for _, task := range tasks {
		res.Tasks = append(res.Tasks, dto.FromTask(task))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Next returns the single highest-priority task, or 204 when the queue is
// empty.
func (h *TaskHandler) Next(w http.ResponseWriter, r *http.Request) {
	day, err := dayFrom(r, "date")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	task, err := h.Tasks.Next(r.Context(), day)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if task == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromTask(task))
}

func (h *TaskHandler) StartStop(w http.ResponseWriter, r *http.Request) {
	h.stopTransition(w, r, h.Tasks.StartStop)
}

func (h *TaskHandler) CompleteStop(w http.ResponseWriter, r *http.Request) {
	h.stopTransition(w, r, h.Tasks.CompleteStop)
}

func (h *TaskHandler) FailStop(w http.ResponseWriter, r *http.Request) {
	h.stopTransition(w, r, h.Tasks.FailStop)
}

func (h *TaskHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req dto.UpdateNotesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.Tasks.UpdateNotes(r.Context(), actorFrom(r), orderID, req.Notes); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) stopTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Actor, int64) error) {
	stopID, err := strconv.ParseInt(chi.URLParam(r, "stopID"), 10, 64)
	if err != nil || stopID <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid stop id")
		return
	}
	if err := op(r.Context(), actorFrom(r), stopID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
