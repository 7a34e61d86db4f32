package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	url       string
	uploadErr error
	deleteErr error

	uploads  []UploadOptions
	prefixes []string
}

func (f *fakeHost) Upload(ctx context.Context, localPath string, opts UploadOptions) (string, error) {
	f.uploads = append(f.uploads, opts)
	return f.url, f.uploadErr
}

func (f *fakeHost) DeleteByPrefix(ctx context.Context, prefix, resourceType string) error {
	f.prefixes = append(f.prefixes, prefix)
	return f.deleteErr
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_Publish(t *testing.T) {
	host := &fakeHost{url: "https://res.cloudinary.com/demo/video/upload/merged-audio/episode.mp3"}
	p := NewPublisher(host, Config{Folder: "merged-audio"}, discard())

	url, err := p.Publish(context.Background(), "/ws/episode.mp3", "episode")
	require.NoError(t, err)
	assert.Equal(t, host.url, url)

	require.Len(t, host.uploads, 1)
	assert.Equal(t, UploadOptions{
		PublicID:     "episode",
		Folder:       "merged-audio",
		ResourceType: ResourceTypeAudio,
		Overwrite:    true,
	}, host.uploads[0])
}

func TestPublisher_PublishError(t *testing.T) {
	host := &fakeHost{uploadErr: errors.New("401 invalid signature")}
	p := NewPublisher(host, Config{}, discard())

	_, err := p.Publish(context.Background(), "/ws/x.mp3", "x")
	assert.ErrorContains(t, err, "invalid signature")
}

func TestPublisher_Purge(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		host := &fakeHost{}
		p := NewPublisher(host, Config{PurgePrefix: "merged-audio/tmp", PurgeEnabled: true}, discard())
		require.NoError(t, p.Purge(context.Background()))
		assert.Equal(t, []string{"merged-audio/tmp"}, host.prefixes)
	})

	t.Run("disabled", func(t *testing.T) {
		host := &fakeHost{}
		p := NewPublisher(host, Config{PurgePrefix: "merged-audio/tmp"}, discard())
		require.NoError(t, p.Purge(context.Background()))
		assert.Empty(t, host.prefixes)
	})

	t.Run("failure is returned", func(t *testing.T) {
		host := &fakeHost{deleteErr: errors.New("rate limited")}
		p := NewPublisher(host, Config{PurgePrefix: "tmp", PurgeEnabled: true}, discard())
		err := p.Purge(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "purge prefix tmp")
	})
}

func TestDirHost_UploadAndPurge(t *testing.T) {
	root := t.TempDir()
	host, err := NewDirHost(root, "")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "episode.mp3")
	require.NoError(t, os.WriteFile(src, []byte("merged"), 0o644))

	url, err := host.Upload(context.Background(), src, UploadOptions{PublicID: "episode", Folder: "merged-audio", Overwrite: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/merged-audio/episode.mp3"))

	data, err := os.ReadFile(filepath.Join(root, "merged-audio", "episode.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "merged", string(data))

	_, err = host.Upload(context.Background(), src, UploadOptions{PublicID: "episode", Folder: "merged-audio"})
	assert.Error(t, err, "upload without overwrite must not replace an asset")

	_, err = host.Upload(context.Background(), src, UploadOptions{PublicID: "draft", Folder: "merged-audio/tmp", Overwrite: true})
	require.NoError(t, err)

	require.NoError(t, host.DeleteByPrefix(context.Background(), "merged-audio/tmp", ResourceTypeAudio))
	assert.NoFileExists(t, filepath.Join(root, "merged-audio", "tmp", "draft.mp3"))
	assert.FileExists(t, filepath.Join(root, "merged-audio", "episode.mp3"))
}

func TestDirHost_BaseURL(t *testing.T) {
	host, err := NewDirHost(t.TempDir(), "https://cdn.example.com/audio/")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "mix.wav")
	require.NoError(t, os.WriteFile(src, []byte("RIFF"), 0o644))

	url, err := host.Upload(context.Background(), src, UploadOptions{PublicID: "mix", Folder: "merged-audio", Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/audio/merged-audio/mix.wav", url)
}

func TestDirHost_RejectsEscapes(t *testing.T) {
	host, err := NewDirHost(t.TempDir(), "")
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "x.mp3")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err = host.Upload(context.Background(), src, UploadOptions{PublicID: "../../etc/x", Overwrite: true})
	assert.Error(t, err)
	assert.Error(t, host.DeleteByPrefix(context.Background(), "", ResourceTypeAudio))
}

func TestNewCloudinaryHostRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryHost("demo", "", "")
	assert.Error(t, err)

	h, err := NewCloudinaryHost("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, h)
}
