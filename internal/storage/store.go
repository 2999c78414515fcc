// Package storage is the receipt object store: raw document bytes go in
// under a deterministic key, a publicly resolvable URL comes out.
package storage

import "context"

// ObjectStore uploads document bytes under a key and resolves the
// public retrieval URL for the stored object.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
