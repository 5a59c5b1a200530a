package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	id "clientele/pkg/domain"
	dErrors "clientele/pkg/domain-errors"
	"clientele/pkg/platform/validation"
)

const (
	msgNameTooShort     = "full name must have at least 3 characters"
	msgNameTooLong      = "full name cannot exceed 100 characters"
	msgNameCharset      = "full name contains invalid characters"
	msgDocumentInvalid  = "invalid document number"
	msgBirthDateInvalid = "birth date must be a calendar date (YYYY-MM-DD)"
	msgBirthDateFuture  = "birth date cannot be in the future"
	msgTooYoung         = "client must be at least 12 years old"
	msgPhoneInvalid     = "phone must have 10 or 11 digits, e.g. (XX) XXXXX-XXXX or (XX) XXXX-XXXX"
	msgAltPhoneInvalid  = "alternate phone must have 10 or 11 digits, e.g. (XX) XXXXX-XXXX or (XX) XXXX-XXXX"
	msgEmailInvalid     = "invalid email format"
	msgEmailTooLong     = "email is too long"
	msgReferralInvalid  = "referral source must be one of Referral, Social Media, Google, Walk-in, Advertisement, Other"
	msgContactRequired  = "at least one phone or email is required"
	msgAltPhoneSame     = "alternate phone must differ from primary phone"
	msgIDRequired       = "client id is required"
)

// CreateClientRequest is the payload for registering a client.
type CreateClientRequest struct {
	FullName       string   `json:"full_name"`
	Document       *string  `json:"document"`
	BirthDate      *string  `json:"birth_date"`
	PrimaryPhone   string   `json:"primary_phone"`
	AlternatePhone *string  `json:"alternate_phone"`
	Email          *string  `json:"email"`
	Address        *Address `json:"address"`
	ReferralSource *string  `json:"referral_source"`

	// Parsed values (populated by Validate)
	parsedBirthDate *time.Time
	parsedReferral  *id.ReferralSource
}

// Normalize trims input and turns blank optional fields into absent ones.
func (r *CreateClientRequest) Normalize() {
	if r == nil {
		return
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.PrimaryPhone = strings.TrimSpace(r.PrimaryPhone)
	r.Document = trimToNil(r.Document)
	r.BirthDate = trimToNil(r.BirthDate)
	r.AlternatePhone = trimToNil(r.AlternatePhone)
	r.Email = trimToNil(r.Email)
	r.ReferralSource = trimToNil(r.ReferralSource)
	r.Address = normalizeAddress(r.Address)
}

// Validate checks every field, then the cross-field rules once fields pass.
// now anchors the birth date checks.
func (r *CreateClientRequest) Validate(now time.Time) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	var errs validation.Errors
	if r.FullName == "" {
		errs.Add("full_name", "full name is required")
	} else {
		checkFullName(&errs, r.FullName)
	}
	if r.PrimaryPhone == "" {
		errs.Add("primary_phone", "primary phone is required")
	} else {
		errs.AddIf(!IsValidPhone(r.PrimaryPhone), "primary_phone", msgPhoneInvalid)
	}
	if r.Document != nil {
		errs.AddIf(!IsValidDocumentNumber(*r.Document), "document", msgDocumentInvalid)
	}
	if r.BirthDate != nil {
		r.parsedBirthDate = checkBirthDate(&errs, *r.BirthDate, now)
	}
	if r.AlternatePhone != nil {
		errs.AddIf(!IsValidPhone(*r.AlternatePhone), "alternate_phone", msgAltPhoneInvalid)
	}
	if r.Email != nil {
		checkEmail(&errs, *r.Email)
	}
	if r.Address != nil {
		checkAddress(&errs, *r.Address)
	}
	if r.ReferralSource != nil {
		r.parsedReferral = checkReferral(&errs, *r.ReferralSource)
	}
	if !errs.Empty() {
		return errs.Err()
	}

	if r.PrimaryPhone == "" && r.Email == nil {
		errs.Add("primary_phone", msgContactRequired)
	}
	if r.AlternatePhone != nil && samePhone(*r.AlternatePhone, r.PrimaryPhone) {
		errs.Add("alternate_phone", msgAltPhoneSame)
	}
	return errs.Err()
}

// Profile converts a validated request into the client profile.
func (r *CreateClientRequest) Profile() Profile {
	return Profile{
		FullName:       r.FullName,
		Document:       clonePtr(r.Document),
		BirthDate:      clonePtr(r.parsedBirthDate),
		PrimaryPhone:   r.PrimaryPhone,
		AlternatePhone: clonePtr(r.AlternatePhone),
		Email:          clonePtr(r.Email),
		Address:        clonePtr(r.Address),
		ReferralSource: clonePtr(r.parsedReferral),
	}
}

// UpdateClientRequest is a partial patch. Absent fields stay unchanged;
// explicit null (or blank text) clears nullable fields.
type UpdateClientRequest struct {
	ID             string            `json:"-"`
	FullName       Optional[string]  `json:"full_name,omitzero"`
	Document       Optional[string]  `json:"document,omitzero"`
	BirthDate      Optional[string]  `json:"birth_date,omitzero"`
	PrimaryPhone   Optional[string]  `json:"primary_phone,omitzero"`
	AlternatePhone Optional[string]  `json:"alternate_phone,omitzero"`
	Email          Optional[string]  `json:"email,omitzero"`
	Address        Optional[Address] `json:"address,omitzero"`
	ReferralSource Optional[string]  `json:"referral_source,omitzero"`

	parsedID        id.ClientID
	parsedBirthDate *time.Time
	parsedReferral  *id.ReferralSource
}

// Normalize trims input; blank nullable fields become explicit nulls.
func (r *UpdateClientRequest) Normalize() {
	if r == nil {
		return
	}
	r.ID = strings.TrimSpace(r.ID)
	if r.FullName.HasValue() {
		r.FullName.Value = strings.TrimSpace(r.FullName.Value)
	}
	if r.PrimaryPhone.HasValue() {
		r.PrimaryPhone.Value = strings.TrimSpace(r.PrimaryPhone.Value)
	}
	for _, f := range []*Optional[string]{&r.Document, &r.BirthDate, &r.AlternatePhone, &r.Email, &r.ReferralSource} {
		if f.HasValue() {
			f.Value = strings.TrimSpace(f.Value)
			if f.Value == "" {
				*f = Null[string]()
			}
		}
	}
	if r.Address.HasValue() {
		if a := normalizeAddress(&r.Address.Value); a != nil {
			r.Address.Value = *a
		} else {
			r.Address = Null[Address]()
		}
	}
}

// Validate checks the id and every present field. The alternate phone rule
// compares against the primary phone only when both are in the patch; the
// merged record is checked again when the patch is applied.
func (r *UpdateClientRequest) Validate(now time.Time) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	var errs validation.Errors
	if parsed, err := id.ParseClientID(r.ID); err != nil {
		errs.Add("id", msgIDRequired)
	} else {
		r.parsedID = parsed
	}
	if r.FullName.Set {
		if r.FullName.Null {
			errs.Add("full_name", "full name cannot be null")
		} else {
			checkFullName(&errs, r.FullName.Value)
		}
	}
	if r.PrimaryPhone.Set {
		if r.PrimaryPhone.Null {
			errs.Add("primary_phone", "primary phone cannot be null")
		} else {
			errs.AddIf(!IsValidPhone(r.PrimaryPhone.Value), "primary_phone", msgPhoneInvalid)
		}
	}
	if r.Document.HasValue() {
		errs.AddIf(!IsValidDocumentNumber(r.Document.Value), "document", msgDocumentInvalid)
	}
	if r.BirthDate.HasValue() {
		r.parsedBirthDate = checkBirthDate(&errs, r.BirthDate.Value, now)
	}
	if r.AlternatePhone.HasValue() {
		errs.AddIf(!IsValidPhone(r.AlternatePhone.Value), "alternate_phone", msgAltPhoneInvalid)
	}
	if r.Email.HasValue() {
		checkEmail(&errs, r.Email.Value)
	}
	if r.Address.HasValue() {
		checkAddress(&errs, r.Address.Value)
	}
	if r.ReferralSource.HasValue() {
		r.parsedReferral = checkReferral(&errs, r.ReferralSource.Value)
	}
	if !errs.Empty() {
		return errs.Err()
	}

	if r.AlternatePhone.HasValue() && r.PrimaryPhone.HasValue() &&
		samePhone(r.AlternatePhone.Value, r.PrimaryPhone.Value) {
		errs.Add("alternate_phone", msgAltPhoneSame)
	}
	return errs.Err()
}

// ParsedID returns the validated client id.
func (r *UpdateClientRequest) ParsedID() id.ClientID {
	return r.parsedID
}

// ApplyTo copies every present field of a validated patch onto p.
func (r *UpdateClientRequest) ApplyTo(p *Profile) {
	if r.FullName.HasValue() {
		p.FullName = r.FullName.Value
	}
	if r.PrimaryPhone.HasValue() {
		p.PrimaryPhone = r.PrimaryPhone.Value
	}
	applyNullable(&p.Document, r.Document)
	applyNullable(&p.AlternatePhone, r.AlternatePhone)
	applyNullable(&p.Email, r.Email)
	applyNullable(&p.Address, r.Address)
	if r.BirthDate.Set {
		p.BirthDate = clonePtr(r.parsedBirthDate)
	}
	if r.ReferralSource.Set {
		p.ReferralSource = clonePtr(r.parsedReferral)
	}
}

func applyNullable[T any](dst **T, o Optional[T]) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.Value
	*dst = &v
}

// ClientIDRequest carries the path id for get and delete.
type ClientIDRequest struct {
	ID string `json:"id"`

	parsedID id.ClientID
}

// Validate requires a non-blank id.
func (r *ClientIDRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	parsed, err := id.ParseClientID(r.ID)
	if err != nil {
		return dErrors.NewValidation([]dErrors.FieldError{{Path: "id", Message: msgIDRequired}})
	}
	r.parsedID = parsed
	return nil
}

// ParsedID returns the validated client id.
func (r *ClientIDRequest) ParsedID() id.ClientID {
	return r.parsedID
}

// ListClientsRequest holds raw query values; numbers arrive as text.
type ListClientsRequest struct {
	Status   string `json:"status"`
	Page     string `json:"page"`
	PageSize string `json:"page_size"`

	parsedStatus   *Status
	parsedPage     int
	parsedPageSize int
}

// Validate coerces and range-checks the query values, applying defaults.
func (r *ListClientsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	var errs validation.Errors
	r.parsedStatus = nil
	if s := strings.TrimSpace(r.Status); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			errs.Add("status", "status must be Active or Inactive")
		} else {
			r.parsedStatus = &st
		}
	}

	r.parsedPage = validation.DefaultPage
	if p := strings.TrimSpace(r.Page); p != "" {
		n, ok := coercePositiveInt(p)
		if !ok {
			errs.Add("page", "page must be a positive integer")
		} else {
			r.parsedPage = n
		}
	}

	r.parsedPageSize = validation.DefaultPageSize
	if ps := strings.TrimSpace(r.PageSize); ps != "" {
		n, ok := coercePositiveInt(ps)
		switch {
		case !ok:
			errs.Add("page_size", "page size must be a positive integer")
		case n > validation.MaxPageSize:
			errs.Add("page_size", "page size cannot exceed 100")
		default:
			r.parsedPageSize = n
		}
	}
	return errs.Err()
}

// ParsedStatus returns the status filter, or nil for all statuses.
func (r *ListClientsRequest) ParsedStatus() *Status {
	return r.parsedStatus
}

// ParsedPage returns the 1-based page number.
func (r *ListClientsRequest) ParsedPage() int {
	return r.parsedPage
}

// ParsedPageSize returns the page size.
func (r *ListClientsRequest) ParsedPageSize() int {
	return r.parsedPageSize
}

// coercePositiveInt converts numeric text such as "2" or "2.0" to an int.
func coercePositiveInt(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func checkFullName(errs *validation.Errors, name string) {
	n := NameLength(name)
	switch {
	case n < validation.MinNameLength:
		errs.Add("full_name", msgNameTooShort)
	case n > validation.MaxNameLength:
		errs.Add("full_name", msgNameTooLong)
	}
	errs.AddIf(!IsValidFullName(name), "full_name", msgNameCharset)
}

func checkBirthDate(errs *validation.Errors, raw string, now time.Time) *time.Time {
	birth, ok := ParseBirthDate(raw)
	if !ok {
		errs.Add("birth_date", msgBirthDateInvalid)
		return nil
	}
	if birth.After(now) {
		errs.Add("birth_date", msgBirthDateFuture)
		return nil
	}
	if !IsAdultEnough(birth, now) {
		errs.Add("birth_date", msgTooYoung)
		return nil
	}
	return &birth
}

// checkEmail skips the pattern match once the length check has failed.
func checkEmail(errs *validation.Errors, email string) {
	errs.AddIf(len(email) > validation.MaxEmailLength, "email", msgEmailTooLong)
	if !errs.Has("email") {
		errs.AddIf(!IsValidEmail(email), "email", msgEmailInvalid)
	}
}

func checkAddress(errs *validation.Errors, a Address) {
	checkMax(errs, "address.street", a.Street, validation.MaxStreetLength)
	checkMax(errs, "address.number", a.Number, validation.MaxNumberLength)
	checkMax(errs, "address.complement", a.Complement, validation.MaxComplementLength)
	checkMax(errs, "address.neighborhood", a.Neighborhood, validation.MaxNeighborhoodLength)
	checkMax(errs, "address.city", a.City, validation.MaxCityLength)
	checkMax(errs, "address.postal_code", a.PostalCode, validation.MaxPostalCodeLength)
	if a.State != "" {
		errs.AddIf(!IsValidState(a.State), "address.state", "state must be a 2-letter code")
	}
}

func checkMax(errs *validation.Errors, path, v string, limit int) {
	errs.AddIf(NameLength(v) > limit, path, path+" cannot exceed "+strconv.Itoa(limit)+" characters")
}

func checkReferral(errs *validation.Errors, raw string) *id.ReferralSource {
	src, err := id.ParseReferralSource(raw)
	if err != nil {
		errs.Add("referral_source", msgReferralInvalid)
		return nil
	}
	return &src
}

func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	out := Address{
		Street:       strings.TrimSpace(a.Street),
		Number:       strings.TrimSpace(a.Number),
		Complement:   strings.TrimSpace(a.Complement),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		City:         strings.TrimSpace(a.City),
		State:        strings.ToUpper(strings.TrimSpace(a.State)),
		PostalCode:   strings.TrimSpace(a.PostalCode),
	}
	if out.IsEmpty() {
		return nil
	}
	return &out
}
