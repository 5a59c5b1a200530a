package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MinimumAge is the youngest age, in whole years, a client may have.
const MinimumAge = 12

var (
	namePattern  = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s'-]+$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)
	statePattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidDocumentNumber accepts 11-digit national IDs that are not a single
// digit repeated. Punctuation is ignored.
func IsValidDocumentNumber(s string) bool {
	digits := DigitsOnly(s)
	if len(digits) != 11 {
		return false
	}
	return strings.Count(digits, digits[:1]) != len(digits)
}

// IsValidPhone accepts numbers with 10 or 11 digits once punctuation is removed.
func IsValidPhone(s string) bool {
	n := len(DigitsOnly(s))
	return n == 10 || n == 11
}

// IsAdultEnough reports whether someone born on birth is at least
// MinimumAge whole years old at now.
func IsAdultEnough(birth, now time.Time) bool {
	return AgeAt(birth, now) >= MinimumAge
}

// AgeAt computes age in whole years: the calendar year difference, minus one
// when now's month/day precedes the birth month/day.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsValidEmail checks the address shape: no leading dot, no consecutive
// dots, a dotted domain and a top-level label of at least two letters.
func IsValidEmail(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailPattern.MatchString(s)
}

// IsValidFullName checks charset only; length is checked separately.
func IsValidFullName(s string) bool {
	return namePattern.MatchString(s)
}

// NameLength counts runes so accented names are measured by characters.
func NameLength(s string) int {
	return utf8.RuneCountInString(s)
}

// IsValidState accepts two-letter uppercase state codes.
func IsValidState(s string) bool {
	return statePattern.MatchString(s)
}

// ParseBirthDate accepts a calendar date (2006-01-02) or an RFC 3339
// timestamp and returns the date at UTC midnight.
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
