package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	clientmetrics "clientele/internal/clients/metrics"
	"clientele/internal/clients/models"
	"clientele/internal/clients/store"
	id "clientele/pkg/domain"
	dErrors "clientele/pkg/domain-errors"
	audit "clientele/pkg/platform/audit"
	"clientele/pkg/platform/sentinel"
	"clientele/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks Store,AuditPublisher

type Store interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	List(ctx context.Context, filter store.Filter) (*models.ListResult, error)
	Execute(ctx context.Context, clientID id.ClientID, fn func(*models.Client) error) (*models.Client, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns client lifecycle: validation, uniqueness translation, actor
// stamping and audit. The store is the only writer of the collection.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *clientmetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *clientmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		tracer: otel.Tracer("clientele/internal/clients/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new Active client on behalf of actor.
func (s *Service) Create(ctx context.Context, actor string, req *models.CreateClientRequest) (client *models.Client, err error) {
	ctx, span := s.startSpan(ctx, "clients.Create")
	defer func() { endSpan(span, err) }()
	defer s.observe("create", time.Now())

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	now := requestcontext.Now(ctx)
	req.Normalize()
	if err := req.Validate(now); err != nil {
		return nil, err
	}

	client, err = models.NewClient(id.NewClientID(), req.Profile(), actor, now)
	if err != nil {
		return nil, invariantToValidation(err)
	}
	if err := s.store.Create(ctx, client); err != nil {
		return nil, s.wrapStoreErr(err, "failed to create client")
	}

	span.SetAttributes(attribute.String("client.id", client.ID.String()))
	s.logAudit(ctx, audit.EventClientCreated, client.ID, actor)
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return client, nil
}

// List returns one page of clients, optionally filtered by status.
func (s *Service) List(ctx context.Context, req *models.ListClientsRequest) (result *models.ListResult, err error) {
	ctx, span := s.startSpan(ctx, "clients.List")
	defer func() { endSpan(span, err) }()
	defer s.observe("list", time.Now())

	if req == nil {
		req = &models.ListClientsRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err = s.store.List(ctx, store.Filter{
		Status:   req.ParsedStatus(),
		Page:     req.ParsedPage(),
		PageSize: req.ParsedPageSize(),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	return result, nil
}

// Get returns a copy of the client with the given id, Active or not.
func (s *Service) Get(ctx context.Context, clientID string) (client *models.Client, err error) {
	ctx, span := s.startSpan(ctx, "clients.Get")
	defer func() { endSpan(span, err) }()
	defer s.observe("get", time.Now())

	req := models.ClientIDRequest{ID: clientID}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	client, err = s.store.FindByID(ctx, req.ParsedID())
	if err != nil {
		return nil, s.wrapStoreErr(err, "failed to get client")
	}
	return client, nil
}

// Update applies a partial patch. Uniqueness is re-checked against other
// Active clients inside the same store lock that performs the write.
func (s *Service) Update(ctx context.Context, actor string, req *models.UpdateClientRequest) (client *models.Client, err error) {
	ctx, span := s.startSpan(ctx, "clients.Update")
	defer func() { endSpan(span, err) }()
	defer s.observe("update", time.Now())

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	now := requestcontext.Now(ctx)
	req.Normalize()
	if err := req.Validate(now); err != nil {
		return nil, err
	}

	client, err = s.store.Execute(ctx, req.ParsedID(), func(c *models.Client) error {
		req.ApplyTo(&c.Profile)
		if err := c.CheckInvariants(); err != nil {
			return invariantToValidation(err)
		}
		c.Touch(actor, now)
		return nil
	})
	if err != nil {
		return nil, s.wrapStoreErr(err, "failed to update client")
	}

	s.logAudit(ctx, audit.EventClientUpdated, client.ID, actor)
	if s.metrics != nil {
		s.metrics.IncrementUpdated()
	}
	return client, nil
}

// Delete soft-deletes a client. The record stays retrievable with status
// Inactive; deleting an Inactive client only refreshes its update stamp.
func (s *Service) Delete(ctx context.Context, actor string, clientID string) (err error) {
	ctx, span := s.startSpan(ctx, "clients.Delete")
	defer func() { endSpan(span, err) }()
	defer s.observe("delete", time.Now())

	req := models.ClientIDRequest{ID: clientID}
	if err := req.Validate(); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	client, err := s.store.Execute(ctx, req.ParsedID(), func(c *models.Client) error {
		c.ApplyDeactivation(actor, now)
		return nil
	})
	if err != nil {
		return s.wrapStoreErr(err, "failed to delete client")
	}

	s.logAudit(ctx, audit.EventClientDeactivated, client.ID, actor)
	if s.metrics != nil {
		s.metrics.IncrementDeactivated()
	}
	return nil
}

// wrapStoreErr translates store facts into domain errors. Domain errors
// raised inside Execute callbacks pass through unchanged.
func (s *Service) wrapStoreErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.Is(err, store.ErrDuplicateDocument):
		s.incrementConflict("document")
		return dErrors.New(dErrors.CodeConflict, "Document already registered").
			WithField("document", "document already registered to an active client")
	case errors.Is(err, store.ErrDuplicateEmail):
		s.incrementConflict("email")
		return dErrors.New(dErrors.CodeConflict, "Email already registered").
			WithField("email", "email already registered to an active client")
	case errors.Is(err, store.ErrMissingContact):
		return dErrors.New(dErrors.CodeValidation, "Validation failed").
			WithField("primary_phone", "at least one phone or email is required")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "Client not found")
	case errors.As(err, &de):
		return de
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// invariantToValidation reports aggregate invariant breaks as caller input errors.
func invariantToValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "Validation failed")
	}
	return err
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, clientID id.ClientID, actor string) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"client_id", clientID.String(),
			"actor", actor,
			"request_id", requestID,
			"event", string(event),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		Subject:   clientID.String(),
		Action:    string(event),
		ActorID:   actor,
		RequestID: requestID,
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"error", err,
			"event", string(event),
			"client_id", clientID.String(),
			"request_id", requestID,
		)
	}
}

func (s *Service) incrementConflict(field string) {
	if s.metrics != nil {
		s.metrics.IncrementConflict(field)
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
