package dto

import "driver-batching-service/internal/domain"

type ToggleRequest struct {
	Selected []string `json:"selected" validate:"omitempty,max=50,dive,required"`
	OrderID  string   `json:"order_id" validate:"required"`
}

type SelectBatchRequest struct {
	Selected []string `json:"selected" validate:"omitempty,max=50,dive,required"`
	OrderIDs []string `json:"order_ids" validate:"required,min=1,max=50,dive,required"`
}

type AcceptRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,max=50,dive,required"`
}

type SelectionResponse struct {
	Selected       []string        `json:"selected"`
	MaxBatchOrders int             `json:"max_batch_orders"`
	Full           bool            `json:"full"`
	Earnings       domain.Earnings `json:"earnings"`
}

type FailedAssignmentResponse struct {
	OrderID  string `json:"order_id"`
	Conflict bool   `json:"conflict"`
	Reason   string `json:"reason"`
}

type AcceptResponse struct {
	DriverID  string                     `json:"driver_id"`
	BatchID   string                     `json:"batch_id,omitempty"`
	IsBatched bool                       `json:"is_batched"`
	Assigned  []string                   `json:"assigned"`
	Failed    []FailedAssignmentResponse `json:"failed"`
	Earnings  domain.Earnings            `json:"earnings"`
}

func NewSelectionResponse(sel domain.DriverSelection, earnings domain.Earnings) SelectionResponse {
	return SelectionResponse{
		Selected:       sel.IDs(),
		MaxBatchOrders: sel.Max(),
		Full:           sel.Len() >= sel.Max(),
		Earnings:       earnings,
	}
}

func NewAcceptResponse(r *domain.AssignmentResult) AcceptResponse {
	res := AcceptResponse{
		DriverID:  r.DriverID,
		BatchID:   r.BatchID,
		IsBatched: r.IsBatched,
		Assigned:  r.Assigned,
		Failed:    make([]FailedAssignmentResponse, 0, len(r.Failed)),
		Earnings:  r.Earnings,
	}
	if res.Assigned == nil {
		res.Assigned = []string{}
	}
	for _, f := range r.Failed {
		res.Failed = append(res.Failed, FailedAssignmentResponse{
			OrderID:  f.OrderID,
			Conflict: f.Conflict,
			Reason:   f.Reason,
		})
	}
	return res
}
