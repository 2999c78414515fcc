package storage

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "jane", "jane"},
		{"spaces become hyphens", "Jane Doe", "jane-doe"},
		{"punctuation collapses", "O'Brien & Sons, Inc.", "o-brien-sons-inc"},
		{"unicode stripped", "Café Zürich", "caf-z-rich"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
		{"leading punctuation", "--jane", "jane"},
		{"long input truncated", strings.Repeat("a", 100), strings.Repeat("a", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize(tt.in))
		})
	}
}

func TestBuildKey(t *testing.T) {
	day := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)

	key := BuildKey(day, "Jane Doe", "Starbucks #42", "image/jpeg")
	assert.Regexp(t, regexp.MustCompile(`^2026/08/29/jane-doe-starbucks-42-[0-9a-f-]{8}\.jpg$`), key)

	// Merchant is optional; pre-extraction batch uploads omit it.
	key = BuildKey(day, "Jane Doe", "", "application/pdf")
	assert.Regexp(t, regexp.MustCompile(`^2026/08/29/jane-doe-[0-9a-f-]{8}\.pdf$`), key)
}

func TestBuildKey_UnknownTypeFallsBackToBin(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	key := BuildKey(day, "jane", "", "application/octet-stream")
	assert.True(t, strings.HasSuffix(key, ".bin"), key)
}

func TestBuildKey_UsesUTCDate(t *testing.T) {
	// 23:30 EST on Aug 5 is already Aug 6 in UTC.
	est := time.FixedZone("EST", -5*3600)
	key := BuildKey(time.Date(2026, 8, 5, 23, 30, 0, 0, est), "jane", "", "image/png")
	assert.True(t, strings.HasPrefix(key, "2026/08/06/"), key)
}

func TestBuildKey_Uniqueness(t *testing.T) {
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	a := BuildKey(day, "jane", "starbucks", "image/jpeg")
	b := BuildKey(day, "jane", "starbucks", "image/jpeg")
	assert.NotEqual(t, a, b, "resubmissions must not collide")
}
