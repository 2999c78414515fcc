package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"sort"
	"strings"
)

// addressPattern picks the bracketed address out of a header-style
// "Display Name <user@example.com>" sender string.
var addressPattern = regexp.MustCompile(`<([^>]+)>`)

// ParseSenderAddress reduces an inbound-mail "from" field to the bare
// address, falling back to the trimmed raw string when no brackets are
// present.
func ParseSenderAddress(from string) string {
	if match := addressPattern.FindStringSubmatch(from); match != nil {
		return match[1]
	}
	return strings.TrimSpace(from)
}

// attachmentInfo is one entry of the inbound-mail attachment manifest,
// keyed by multipart field name.
type attachmentInfo struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// DocumentsFromEmailForm normalizes a forwarded-email multipart
// submission into intake documents. A submission with no attachment
// manifest is a valid empty batch, not an error.
func DocumentsFromEmailForm(form *multipart.Form) ([]Document, error) {
	sender := ParseSenderAddress(firstValue(form, "from"))

	manifestRaw := firstValue(form, "attachment-info")
	if manifestRaw == "" {
		return nil, nil
	}

	var manifest map[string]attachmentInfo
	if err := json.Unmarshal([]byte(manifestRaw), &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse attachment manifest: %w", err)
	}

	// Manifest iteration order is randomized by the map; sort the field
	// names so batch outcomes are stable.
	keys := make([]string, 0, len(manifest))
	for key := range manifest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var docs []Document
	for _, key := range keys {
		headers := form.File[key]
		if len(headers) == 0 {
			continue
		}
		header := headers[0]

		data, err := readFileHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", key, err)
		}

		mimeType := manifest[key].Type
		if mimeType == "" {
			mimeType = header.Header.Get("Content-Type")
		}

		filename := manifest[key].Filename
		if filename == "" {
			filename = header.Filename
		}

		docs = append(docs, Document{
			SenderName: sender,
			Filename:   filename,
			MimeType:   mimeType,
			Data:       data,
		})
	}

	return docs, nil
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
