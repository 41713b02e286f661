package notification

import (
	"github.com/sokomart/grocery-api/internal/entities"
)

const (
	KindOrderConfirmation = "order_confirmation"
	KindStatusUpdate      = "status_update"
)

// Job is the wire format of one notification task on the queue.
type Job struct {
	JobID   string `json:"job_id" validate:"required"`
	Kind    string `json:"kind" validate:"required,oneof=order_confirmation status_update"`
	OrderID string `json:"order_id" validate:"required"`

	// Status is set for status_update jobs only.
	Status entities.OrderStatus `json:"status,omitempty"`
}

// Result is what a job body reports back. Faults inside the body are
// converted into an error result instead of escaping the job boundary.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func successResult() Result {
	return Result{Status: "success"}
}

func errorResult(message string) Result {
	return Result{Status: "error", Message: message}
}
