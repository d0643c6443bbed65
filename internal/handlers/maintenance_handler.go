package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/huntsync/server/internal/services"
)

// MaintenanceHandler exposes the orphan sweep for event operators
type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(maintenanceService *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

// Status returns the last sweep's outcome
func (h *MaintenanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.maintenanceService.Status())
}

// Sweep triggers an immediate orphan sweep
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	h.maintenanceService.RunNow()
	w.WriteHeader(http.StatusAccepted)
}
