package publish

import (
	"context"
	"fmt"
	"log/slog"
)

// Config fixes the publish location and purge policy.
type Config struct {
	Folder       string
	PurgePrefix  string
	PurgeEnabled bool
}

// Publisher applies the naming policy on top of a Host.
type Publisher struct {
	host   Host
	config Config
	logger *slog.Logger
}

func NewPublisher(host Host, config Config, logger *slog.Logger) *Publisher {
	return &Publisher{host: host, config: config, logger: logger}
}

// Publish uploads localPath under identifier, overwriting any previous asset with that id.
func (p *Publisher) Publish(ctx context.Context, localPath, identifier string) (string, error) {
	url, err := p.host.Upload(ctx, localPath, UploadOptions{
		PublicID:     identifier,
		Folder:       p.config.Folder,
		ResourceType: ResourceTypeAudio,
		Overwrite:    true,
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("artifact published", "public_id", identifier, "folder", p.config.Folder, "url", url)
	return url, nil
}

// Purge deletes hosted assets under the configured prefix. It is a no-op when
// purging is disabled or no prefix is configured.
func (p *Publisher) Purge(ctx context.Context) error {
	if !p.config.PurgeEnabled || p.config.PurgePrefix == "" {
		return nil
	}
	if err := p.host.DeleteByPrefix(ctx, p.config.PurgePrefix, ResourceTypeAudio); err != nil {
		return fmt.Errorf("purge prefix %s: %w", p.config.PurgePrefix, err)
	}
	p.logger.Debug("purged hosted assets", "prefix", p.config.PurgePrefix)
	return nil
}
