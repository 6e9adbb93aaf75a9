package dto

import (
	"time"

	"delivery-dispatch-service/internal/domain"
)

type TaskResponse struct {
	OrderID       int64  `json:"order_id"`
	ClientName    string `json:"client_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	FailedAttempt bool   `json:"failed_attempt"`
	Notes         string `json:"notes,omitempty"`
	PickupDate    string `json:"pickup_date,omitempty"`
	DeliveryDate  string `json:"delivery_date,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

type QueueResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

func FromTask(task *domain.DeliveryTask) TaskResponse {
	return TaskResponse{
		OrderID:       task.OrderID,
		ClientName:    task.ClientName,
		Phone:         task.Phone,
		Address:       task.Address,
		Kind:          string(task.Kind),
		Status:        string(task.Status),
		FailedAttempt: task.FailedAttempt,
		Notes:         task.Notes,
		PickupDate:    formatDay(task.PickupDate),
		DeliveryDate:  formatDay(task.DeliveryDate),
		UpdatedAt:     task.UpdatedAt.Format(time.RFC3339),
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
