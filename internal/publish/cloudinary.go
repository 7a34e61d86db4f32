package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryHost stores artifacts on Cloudinary.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryHost builds a client from account credentials.
func NewCloudinaryHost(cloudName, apiKey, apiSecret string) (*CloudinaryHost, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are incomplete")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary client: %w", err)
	}
	return &CloudinaryHost{cld: cld}, nil
}

func (h *CloudinaryHost) Upload(ctx context.Context, localPath string, opts UploadOptions) (string, error) {
	res, err := h.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		PublicID:     opts.PublicID,
		Folder:       opts.Folder,
		ResourceType: opts.ResourceType,
		Overwrite:    api.Bool(opts.Overwrite),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: response carried no secure url")
	}
	return res.SecureURL, nil
}

func (h *CloudinaryHost) DeleteByPrefix(ctx context.Context, prefix, resourceType string) error {
	res, err := h.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		AssetType: api.AssetType(resourceType),
		Prefix:    api.CldAPIArray{prefix},
	})
	if err != nil {
		return fmt.Errorf("cloudinary delete by prefix: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary delete by prefix: %s", res.Error.Message)
	}
	return nil
}
