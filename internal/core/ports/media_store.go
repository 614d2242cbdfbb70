package ports

import "context"

// MediaStore uploads a local file to durable object storage and returns its
// public URL. On failure it returns an empty URL and no error — absence, not
// an exception — mirroring the upstream provider contract. Callers must
// remove the local temp file after the call regardless of outcome.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) string
}
