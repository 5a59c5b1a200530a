package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clientele/internal/clients/models"
	id "clientele/pkg/domain"
	"clientele/pkg/platform/sentinel"
)

// Duplicate conditions are distinct so callers can tell which field collided.
// Both wrap sentinel.ErrConflict.
var (
	ErrDuplicateDocument = fmt.Errorf("document already registered to an active client: %w", sentinel.ErrConflict)
	ErrDuplicateEmail    = fmt.Errorf("email already registered to an active client: %w", sentinel.ErrConflict)
	ErrMissingContact    = fmt.Errorf("at least one phone or email is required: %w", sentinel.ErrInvalidState)
)

// Error Contract:
// - ErrNotFound (sentinel) when no record has the requested id
// - ErrDuplicateDocument / ErrDuplicateEmail when a write would break
//   uniqueness among Active records
// - ErrMissingContact when a record has neither phone nor email
// - errors returned by an Execute callback are passed through unchanged

// Filter selects and pages records for List.
type Filter struct {
	Status   *models.Status
	Page     int
	PageSize int
}

// InMemory is the authoritative client collection. Every read-check-write
// sequence runs under a single lock, so uniqueness holds under concurrent
// callers. Records go in and come out as copies.
type InMemory struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*models.Client
	order   []id.ClientID
}

// NewInMemory builds a store seeded with the given records in order.
func NewInMemory(seed ...*models.Client) *InMemory {
	s := &InMemory{clients: make(map[id.ClientID]*models.Client, len(seed))}
	for _, c := range seed {
		if c == nil {
			continue
		}
		if _, exists := s.clients[c.ID]; !exists {
			s.order = append(s.order, c.ID)
		}
		s.clients[c.ID] = c.Clone()
	}
	return s
}

// Create appends a new record after checking uniqueness.
func (s *InMemory) Create(_ context.Context, client *models.Client) error {
	if client == nil {
		return errors.New("client is required")
	}
	if !hasContact(client) {
		return ErrMissingContact
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ID]; exists {
		return fmt.Errorf("client id %s already in use: %w", client.ID, sentinel.ErrConflict)
	}
	if err := s.checkUnique(client, "", client.Document != nil, client.Email != nil); err != nil {
		return err
	}
	s.clients[client.ID] = client.Clone()
	s.order = append(s.order, client.ID)
	return nil
}

// FindByID returns a copy of the record with the given id.
func (s *InMemory) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

// List filters by status, counts the matches, then slices out one page in
// insertion order. A page past the end is empty, not an error.
func (s *InMemory) List(_ context.Context, filter Filter) (*models.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	items := make([]*models.Client, 0)
	total := 0
	for _, cid := range s.order {
		c := s.clients[cid]
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if total >= start && total < end {
			items = append(items, c.Clone())
		}
		total++
	}

	return &models.ListResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Execute runs fn against a copy of the record while holding the write lock.
// If fn succeeds, uniqueness is re-checked against other Active records and
// the copy replaces the stored record. Nothing is written when fn fails.
// An Active record re-checks both fields; an Inactive one only re-checks a
// field whose value fn changed.
func (s *InMemory) Execute(_ context.Context, clientID id.ClientID, fn func(*models.Client) error) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = clientID
	if !hasContact(working) {
		return nil, ErrMissingContact
	}
	checkDoc := working.Document != nil && (working.IsActive() || !sameValue(current.Document, working.Document))
	checkEmail := working.Email != nil && (working.IsActive() || !sameValue(current.Email, working.Email))
	if err := s.checkUnique(working, clientID, checkDoc, checkEmail); err != nil {
		return nil, err
	}
	s.clients[clientID] = working
	return working.Clone(), nil
}

// checkUnique scans Active records other than exclude for the selected
// fields. Documents are compared across every record before any email, so a
// request colliding on both reports the document. Must be called while
// holding s.mu.
func (s *InMemory) checkUnique(candidate *models.Client, exclude id.ClientID, checkDoc, checkEmail bool) error {
	if checkDoc && s.activeHolder(exclude, candidate.ID, func(other *models.Client) bool {
		return other.Document != nil && *other.Document == *candidate.Document
	}) {
		return ErrDuplicateDocument
	}
	if checkEmail && s.activeHolder(exclude, candidate.ID, func(other *models.Client) bool {
		return other.Email != nil && *other.Email == *candidate.Email
	}) {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *InMemory) activeHolder(exclude, self id.ClientID, match func(*models.Client) bool) bool {
	for _, cid := range s.order {
		if cid == exclude || cid == self {
			continue
		}
		if other := s.clients[cid]; other.IsActive() && match(other) {
			return true
		}
	}
	return false
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func hasContact(c *models.Client) bool {
	return c.PrimaryPhone != "" || c.Email != nil
}
