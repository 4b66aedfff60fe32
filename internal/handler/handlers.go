package handler

import (
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/deppfellow/maintenance-ledger/internal/service"
)

// Handlers groups every HTTP handler so the router takes a single value.
type Handlers struct {
	Health       *HealthHandler
	OpenAPI      *OpenAPIHandler
	Machine      *MachineHandler
	Maintenance  *MaintenanceHandler
	Intervention *InterventionHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(s),
		OpenAPI:      NewOpenAPIHandler(s),
		Machine:      NewMachineHandler(s, services.Ledger),
		Maintenance:  NewMaintenanceHandler(s, services.Ledger),
		Intervention: NewInterventionHandler(s, services.Ledger),
	}
}
