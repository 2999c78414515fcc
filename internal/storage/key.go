package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/png":       "png",
	"application/pdf": "pdf",
}

// BuildKey derives the object key for a stored receipt. Keys embed the
// submission date, the sanitized sender, and (when already extracted)
// the sanitized merchant, plus a random suffix so resubmissions never
// collide: 2026/08/29/jane-doe-starbucks-1a2b3c4d.jpg
func BuildKey(submittedAt time.Time, sender, merchant, mimeType string) string {
	parts := []string{sanitize(sender)}
	if m := sanitize(merchant); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, uuid.NewString()[:8])

	ext, ok := extensions[mimeType]
	if !ok {
		ext = "bin"
	}

	return submittedAt.UTC().Format("2006/01/02") + "/" + strings.Join(parts, "-") + "." + ext
}

const maxComponentLen = 40

// sanitize reduces a free-form name to a safe key component:
// lowercase, alphanumeric runs joined by single hyphens.
func sanitize(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxComponentLen {
			break
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
