package handlers

import (
	"driver-batching-service/internal/api/dto"
	"driver-batching-service/internal/domain"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"driver-batching-service/internal/services"
	"errors"
	"net/http"
	"strconv"
)

// SelectionHandler edits and submits a driver's order selection. The
// selection itself lives on the client; each call sends the current ids.
type SelectionHandler struct {
	Acceptor *services.Acceptor
	Drivers  ports.DriverRepository
}

func (h *SelectionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ToggleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	driver, ok := currentDriver(w, r, h.Drivers)
	if !ok {
		return
	}

	sel := domain.NewDriverSelection(driver.Capacity(), req.Selected...).Toggle(req.OrderID)
	writeJSON(w, r, http.StatusOK, dto.NewSelectionResponse(sel, services.PreviewSelection(sel)))
}

func (h *SelectionHandler) SelectBatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.SelectBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	driver, ok := currentDriver(w, r, h.Drivers)
	if !ok {
		return
	}

	sel := domain.NewDriverSelection(driver.Capacity(), req.Selected...).SelectBatch(req.OrderIDs)
	writeJSON(w, r, http.StatusOK, dto.NewSelectionResponse(sel, services.PreviewSelection(sel)))
}

// Accept submits the selection. 200 when every order was assigned, 207 when
// some failed, 409 when another driver won every order, 422 when nothing was
// assigned for any other reason.
func (h *SelectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.AcceptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	driver, ok := currentDriver(w, r, h.Drivers)
	if !ok {
		return
	}

	result, err := h.Acceptor.AcceptSelection(r.Context(), driver, req.OrderIDs)
	switch {
	case errors.Is(err, services.ErrEmptySelection), errors.Is(err, services.ErrSelectionTooLarge):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil && result == nil:
		obs.Logger(r.Context()).Error().Err(err).Str("driver_id", driver.ID).Msg("accept selection failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	case err != nil:
		// assignments went through; report them even though a later step failed
		obs.Logger(r.Context()).Error().Err(err).Str("driver_id", driver.ID).Msg("accept selection incomplete")
	}

	status := http.StatusOK
	switch {
	case result.AllConflicted():
		status = http.StatusConflict
	case len(result.Assigned) == 0:
		status = http.StatusUnprocessableEntity
	case len(result.Failed) > 0:
		status = http.StatusMultiStatus
	}

	writeJSON(w, r, status, dto.NewAcceptResponse(result))
}

// Earnings previews driver pay for ?count=n orders.
func Earnings(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("count")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 100 {
		writeError(w, r, http.StatusBadRequest, "count must be an integer between 0 and 100")
		return
	}

	writeJSON(w, r, http.StatusOK, services.ComputeEarnings(n))
}
