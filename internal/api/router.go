package api

import (
	"driver-batching-service/internal/api/handlers"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"driver-batching-service/internal/services"
	"net/http"
)

// Deps are the services the HTTP layer needs.
type Deps struct {
	Planner   *services.Planner
	Acceptor  *services.Acceptor
	Drivers   ports.DriverRepository
	JWTSecret string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	batchHandler := &handlers.BatchHandler{Planner: d.Planner, Drivers: d.Drivers}
	selHandler := &handlers.SelectionHandler{Acceptor: d.Acceptor, Drivers: d.Drivers}

	driverOnly := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(d.JWTSecret, h)
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", obs.Handler())
	mux.HandleFunc("/earnings", handlers.Earnings)
	mux.Handle("/batches", driverOnly(batchHandler.List))
	mux.Handle("/selection/toggle", driverOnly(selHandler.Toggle))
	mux.Handle("/selection/select-batch", driverOnly(selHandler.SelectBatch))
	mux.Handle("/selection/accept", driverOnly(selHandler.Accept))

	return requestIDMiddleware(loggingMiddleware(mux))
}
