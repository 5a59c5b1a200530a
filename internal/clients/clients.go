// Package clients is the client management bounded context: field and
// request validation, the uniqueness-constrained in-memory collection, and
// the HTTP endpoints over them.
package clients

import (
	"log/slog"

	"clientele/internal/clients/handler"
	"clientele/internal/clients/models"
	"clientele/internal/clients/service"
	"clientele/internal/clients/store"
)

// Service exposes client lifecycle operations.
type Service = service.Service

// Handler wires HTTP endpoints to the client service.
type Handler = handler.Handler

// NewService constructs the client service over a fresh in-memory collection
// seeded with the given records.
func NewService(opts []service.Option, seed ...*models.Client) *Service {
	return service.New(store.NewInMemory(seed...), opts...)
}

// NewHandler constructs an HTTP handler for the client routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
