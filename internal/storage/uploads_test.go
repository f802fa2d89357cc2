package storage

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agrisocial/internal/models"
	"agrisocial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidation(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func localFile(s *Store, url string) string {
	return filepath.Join(s.Root(), filepath.FromSlash(strings.TrimPrefix(url, PublicPrefix+"/")))
}

func TestStore_SavePNG(t *testing.T) {
	t.Parallel()
	s := NewStore(t.TempDir(), 1)

	url, err := s.Save(KindPost, "field.png", testutil.TinyPNG(t, 20, 10))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/posts/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	info, err := os.Stat(localFile(s, url))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(s.Root(), "posts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestStore_SaveRejects(t *testing.T) {
	t.Parallel()
	s := NewStore(t.TempDir(), 1)

	t.Run("disallowed extension", func(t *testing.T) {
		_, err := s.Save(KindPost, "notes.txt", []byte("hello"))
		assertValidation(t, err)
	})
	t.Run("webp not allowed", func(t *testing.T) {
		_, err := s.Save(KindPost, "pic.webp", testutil.TinyPNG(t, 4, 4))
		assertValidation(t, err)
	})
	t.Run("text disguised as png", func(t *testing.T) {
		_, err := s.Save(KindItem, "fake.png", []byte("definitely not an image"))
		assertValidation(t, err)
	})
	t.Run("extension mismatch", func(t *testing.T) {
		_, err := s.Save(KindItem, "photo.jpg", testutil.TinyPNG(t, 4, 4))
		assertValidation(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := s.Save(KindItem, "empty.png", nil)
		assertValidation(t, err)
	})
	t.Run("too large", func(t *testing.T) {
		big := append(testutil.TinyPNG(t, 4, 4), bytes.Repeat([]byte{0}, 1024*1024)...)
		_, err := s.Save(KindItem, "big.png", big)
		assertValidation(t, err)
	})
}

func TestStore_AvatarDownscaled(t *testing.T) {
	t.Parallel()
	s := NewStore(t.TempDir(), 4)

	url, err := s.Save(KindAvatar, "me.png", testutil.TinyPNG(t, 1024, 600))
	require.NoError(t, err)

	f, err := os.Open(localFile(s, url))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestStore_SmallAvatarGIFKept(t *testing.T) {
	t.Parallel()
	s := NewStore(t.TempDir(), 1)

	content := testutil.TinyGIF(t, 32, 32)
	url, err := s.Save(KindAvatar, "me.gif", content)
	require.NoError(t, err)

	stored, err := os.ReadFile(localFile(s, url))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()
	s := NewStore(t.TempDir(), 1)

	url, err := s.Save(KindItem, "tractor.png", testutil.TinyPNG(t, 8, 8))
	require.NoError(t, err)

	s.Remove(url)
	_, err = os.Stat(localFile(s, url))
	assert.True(t, os.IsNotExist(err))

	// Foreign and traversal URLs are ignored.
	s.Remove("https://example.com/x.png")
	s.Remove("/uploads/../config.yml")
	s.Remove("/uploads/secrets/x.png")
	s.Remove("")
}

func TestNewStore_Defaults(t *testing.T) {
	t.Parallel()
	s := NewStore("", 0)
	assert.Equal(t, DefaultUploadDir, s.Root())
	assert.Equal(t, int64(DefaultMaxSizeMB)*1024*1024, s.maxBytes)
}
