package handlers

import (
	"driver-batching-service/internal/api/dto"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"driver-batching-service/internal/services"
	"net/http"
)

// BatchHandler serves the caller's current batch plan.
type BatchHandler struct {
	Planner *services.Planner
	Drivers ports.DriverRepository
}

func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	driver, ok := currentDriver(w, r, h.Drivers)
	if !ok {
		return
	}

	plan, err := h.Planner.PlanBatches(r.Context(), driver)
	if err != nil {
		obs.Logger(r.Context()).Error().Err(err).Str("driver_id", driver.ID).Msg("plan batches failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewBatchPlanResponse(plan, driver.Capacity()))
}
