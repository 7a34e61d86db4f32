package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirHost publishes into a local directory. Public ids map to relative paths.
// URLs are baseURL + path when baseURL is set, file:// URLs otherwise.
type DirHost struct {
	root    string
	baseURL string
}

func NewDirHost(root, baseURL string) (*DirHost, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve host dir %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create host dir %s: %w", abs, err)
	}
	return &DirHost{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (h *DirHost) Upload(ctx context.Context, localPath string, opts UploadOptions) (string, error) {
	if opts.PublicID == "" {
		return "", fmt.Errorf("public id is required")
	}
	rel := path.Join(opts.Folder, opts.PublicID) + filepath.Ext(localPath)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", fmt.Errorf("public id %q escapes the host directory", opts.PublicID)
	}
	dst := filepath.Join(h.root, filepath.FromSlash(rel))

	if !opts.Overwrite {
		if _, err := os.Stat(dst); err == nil {
			return "", fmt.Errorf("asset %s already exists", rel)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	if err := copyFile(ctx, localPath, dst); err != nil {
		return "", err
	}

	if h.baseURL != "" {
		return h.baseURL + "/" + rel, nil
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}).String(), nil
}

func (h *DirHost) DeleteByPrefix(ctx context.Context, prefix, resourceType string) error {
	if prefix == "" {
		return fmt.Errorf("refusing to delete with an empty prefix")
	}
	return filepath.WalkDir(h.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.root, p)
		if err != nil {
			return err
		}
		if strings.HasPrefix(filepath.ToSlash(rel), prefix) {
			return os.Remove(p)
		}
		return ctx.Err()
	})
}

func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy asset: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close asset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
