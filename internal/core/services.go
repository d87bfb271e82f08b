package core

type Services struct {
	Environment  *EnvironmentService
	Herd         *HerdService
	Server       *ServerService
	Instance     *InstanceService
	APIKey       *APIKeyService
	Resolver     *Resolver
	Orchestrator *Orchestrator
	Guard        *Guard
}

func NewServices(db DB, ctl Controller, probe Prober, concurrency int) *Services {
	instances := NewInstanceService(db)
	return &Services{
		Environment:  NewEnvironmentService(db),
		Herd:         NewHerdService(db),
		Server:       NewServerService(db),
		Instance:     instances,
		APIKey:       NewAPIKeyService(db),
		Resolver:     NewResolver(instances, ctl, probe),
		Orchestrator: NewOrchestrator(instances, ctl, concurrency),
		Guard:        NewGuard(instances, ctl, concurrency),
	}
}
