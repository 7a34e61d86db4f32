// Package publish uploads merged artifacts to a media host and purges temporary assets.
package publish

import "context"

// ResourceTypeAudio is the hosting service's resource class for audio uploads.
const ResourceTypeAudio = "video"

// UploadOptions controls where and how an artifact is stored.
type UploadOptions struct {
	PublicID     string
	Folder       string
	ResourceType string
	Overwrite    bool
}

// Host is a remote media store.
type Host interface {
	// Upload stores localPath and returns its public URL.
	Upload(ctx context.Context, localPath string, opts UploadOptions) (string, error)
	// DeleteByPrefix removes every asset whose public id starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix, resourceType string) error
}
