package ingest

import (
	"fmt"
	"strings"
)

// supportedTypes is the fixed allow-list of document media types.
var supportedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"application/pdf": {},
}

// IsSupportedType reports whether a declared media type is on the
// allow-list. No side effects; how a rejection surfaces is the
// channel's business.
func IsSupportedType(mimeType string) bool {
	_, ok := supportedTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// UnsupportedTypeError rejects a document whose declared media type is
// off the allow-list.
type UnsupportedTypeError struct {
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.MimeType)
}
