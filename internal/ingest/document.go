// Package ingest normalizes submissions from both intake channels and
// runs them through validation, storage, extraction, and triage into
// the ledger.
package ingest

// Document is the canonical intake record both channels normalize
// into. Channel-specific parsing stops here; everything downstream is
// channel-agnostic apart from the failure policy.
type Document struct {
	SenderName string
	ChatID     *int64 // set only for chat submissions, used for reply routing
	Filename   string
	MimeType   string
	Data       []byte
}
