package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDocumentNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"eleven digits", "52998224725", true},
		{"punctuated", "529.982.247-25", true},
		{"repeated digit", "11111111111", false},
		{"repeated zeros", "000.000.000-00", false},
		{"too short", "5299822472", false},
		{"too long", "529982247250", false},
		{"empty", "", false},
		{"letters only", "abcdefghijk", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidDocumentNumber(tt.input))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"mobile", "11988887777", true},
		{"landline", "1133334444", true},
		{"formatted mobile", "(11) 98888-7777", true},
		{"formatted landline", "(11) 3333-4444", true},
		{"nine digits", "119888877", false},
		{"twelve digits", "119888877771", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPhone(tt.input))
		})
	}
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	t.Run("birthday already passed this year", func(t *testing.T) {
		assert.Equal(t, 12, AgeAt(date(2012, time.January, 1), now))
	})
	t.Run("birthday today", func(t *testing.T) {
		assert.Equal(t, 12, AgeAt(date(2012, time.June, 15), now))
		assert.True(t, IsAdultEnough(date(2012, time.June, 15), now))
	})
	t.Run("birthday tomorrow", func(t *testing.T) {
		assert.Equal(t, 11, AgeAt(date(2012, time.June, 16), now))
		assert.False(t, IsAdultEnough(date(2012, time.June, 16), now))
	})
	t.Run("later month", func(t *testing.T) {
		assert.Equal(t, 11, AgeAt(date(2012, time.July, 1), now))
	})
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"maria@example.com", "maria.silva+tag@mail.example.com.br", "a_b@x.io"}
	invalid := []string{"", "maria", "maria@", "@example.com", "maria@example", "maria..silva@example.com", ".maria@example.com", "maria@example.c"}

	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestIsValidFullName(t *testing.T) {
	assert.True(t, IsValidFullName("Maria Silva"))
	assert.True(t, IsValidFullName("João D'Ávila-Araújo"))
	assert.False(t, IsValidFullName("Maria 2"))
	assert.False(t, IsValidFullName("Maria_Silva"))
	assert.Equal(t, 4, NameLength("João"))
}

func TestParseBirthDate(t *testing.T) {
	got, ok := ParseBirthDate("1990-04-20")
	assert.True(t, ok)
	assert.Equal(t, time.Date(1990, time.April, 20, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseBirthDate("1990-04-20T15:30:00-03:00")
	assert.True(t, ok)
	assert.Equal(t, time.Date(1990, time.April, 20, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseBirthDate("20/04/1990")
	assert.False(t, ok)
}
