package server

import "context"

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is anything that can check its backing store, such as the family repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthService reports the reachability of the family store.
type StoreHealthService struct {
	Store Pinger
}

// Probe implements the HealthService interface. A missing store is healthy:
// file-backed deployments have nothing to reach.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Ping(ctx)
}
