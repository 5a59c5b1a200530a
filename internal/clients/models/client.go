package models

import (
	"time"

	id "clientele/pkg/domain"
	dErrors "clientele/pkg/domain-errors"
)

// Status is the visibility state of a client record.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// ParseStatus validates a status filter taken from external input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be Active or Inactive")
}

func (s Status) String() string {
	return string(s)
}

// Address is a free-form postal address; every part is optional.
type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// IsEmpty reports whether no part of the address is filled in.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// Profile holds the caller-editable fields of a client.
type Profile struct {
	FullName       string             `json:"full_name"`
	Document       *string            `json:"document"`
	BirthDate      *time.Time         `json:"birth_date"`
	PrimaryPhone   string             `json:"primary_phone"`
	AlternatePhone *string            `json:"alternate_phone"`
	Email          *string            `json:"email"`
	Address        *Address           `json:"address"`
	ReferralSource *id.ReferralSource `json:"referral_source"`
}

// CheckInvariants enforces the cross-field rules every stored profile obeys.
func (p *Profile) CheckInvariants() error {
	if p.PrimaryPhone == "" && p.Email == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, msgContactRequired).
			WithField("primary_phone", msgContactRequired)
	}
	if p.AlternatePhone != nil && p.PrimaryPhone != "" && samePhone(*p.AlternatePhone, p.PrimaryPhone) {
		return dErrors.New(dErrors.CodeInvariantViolation, msgAltPhoneSame).
			WithField("alternate_phone", msgAltPhoneSame)
	}
	return nil
}

// Client is the aggregate root for a customer record.
//
// Invariants:
//   - ID is assigned once and never reused
//   - at least one of PrimaryPhone or Email is set
//   - AlternatePhone differs from PrimaryPhone
//   - Status starts Active and only moves to Inactive
//   - RegisteredAt and RegisteredBy are immutable
//
// Document and email uniqueness spans the collection and is enforced by the store.
type Client struct {
	ID id.ClientID `json:"id"`
	Profile
	RegisteredAt  time.Time `json:"registered_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	Status        Status    `json:"status"`
	RegisteredBy  string    `json:"registered_by"`
	LastUpdatedBy string    `json:"last_updated_by"`
}

// NewClient builds an Active client. The profile is re-checked here even
// though request validation already ran.
func NewClient(clientID id.ClientID, profile Profile, actor string, now time.Time) (*Client, error) {
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client id cannot be empty")
	}
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "actor cannot be empty")
	}
	if err := profile.CheckInvariants(); err != nil {
		return nil, err
	}
	return &Client{
		ID:            clientID,
		Profile:       profile.clone(),
		RegisteredAt:  now,
		LastUpdatedAt: now,
		Status:        StatusActive,
		RegisteredBy:  actor,
		LastUpdatedBy: actor,
	}, nil
}

func (c *Client) IsActive() bool {
	return c.Status == StatusActive
}

// Touch records a write by actor at now.
func (c *Client) Touch(actor string, now time.Time) {
	c.LastUpdatedAt = now
	c.LastUpdatedBy = actor
}

// ApplyDeactivation soft-deletes the client. Deactivating an inactive client
// only refreshes the last-update stamp.
func (c *Client) ApplyDeactivation(actor string, now time.Time) {
	c.Status = StatusInactive
	c.Touch(actor, now)
}

// Clone returns a deep copy so callers never alias stored records.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	out.Profile = c.Profile.clone()
	return &out
}

func (p Profile) clone() Profile {
	out := p
	out.Document = clonePtr(p.Document)
	out.BirthDate = clonePtr(p.BirthDate)
	out.AlternatePhone = clonePtr(p.AlternatePhone)
	out.Email = clonePtr(p.Email)
	out.Address = clonePtr(p.Address)
	out.ReferralSource = clonePtr(p.ReferralSource)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func samePhone(a, b string) bool {
	return DigitsOnly(a) == DigitsOnly(b)
}

// ListResult is one page of clients.
type ListResult struct {
	Items    []*Client `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// PageCount returns the number of pages needed to show Total items.
func (r *ListResult) PageCount() int {
	if r.PageSize <= 0 {
		return 0
	}
	return (r.Total + r.PageSize - 1) / r.PageSize
}
