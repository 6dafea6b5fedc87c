package api

// API limits and constants.
const (
	// MaxUploadSize is the maximum allowed size for photo uploads (10 MB).
	MaxUploadSize = 10 << 20

	// APIVersion is reported in the OpenAPI document.
	APIVersion = "1.0.0"
)

// Cache-Control header values.
const (
	// Photo keys are never reused, so media can be cached for good.
	CacheImmutable = "public, max-age=31536000, immutable"
	CacheNoStore   = "no-cache"
)
