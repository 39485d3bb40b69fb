// Package blobstore holds evidence files uploaded ahead of a mutation and
// hands out the opaque references entities record.
package blobstore

import (
	"net/url"
	"strings"
	"time"
)

// Blob is one stored file.
type Blob struct {
	Reference   string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// AllowedContentTypes lists the sniffed types accepted for evidence.
var AllowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
}

// publicURL builds the retrievable URL served by Handler for ref.
func publicURL(baseURL, ref string) string {
	return strings.TrimRight(baseURL, "/") + "/blobs/" + url.PathEscape(ref)
}
