// Package storage keeps user uploads on local disk under UPLOAD_DIR.
package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"agrisocial/internal/models"
	"agrisocial/internal/observability"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

// Kind selects the subdirectory an upload is stored under.
type Kind string

const (
	KindPost   Kind = "posts"
	KindItem   Kind = "items"
	KindAvatar Kind = "avatars"
)

const (
	// PublicPrefix is the URL path uploads are served from.
	PublicPrefix = "/uploads"

	DefaultUploadDir   = "uploads"
	DefaultMaxSizeMB   = 16
	AvatarMaxDimension = 512
	JPEGQuality        = 85
)

var allowedExtensions = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// Store writes validated images to disk and hands back their public URL.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore builds a store rooted at dir. Empty or non-positive values fall back to defaults.
func NewStore(dir string, maxSizeMB int) *Store {
	if dir == "" {
		dir = DefaultUploadDir
	}
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	return &Store{root: dir, maxBytes: int64(maxSizeMB) * 1024 * 1024}
}

// Root returns the directory served at PublicPrefix.
func (s *Store) Root() string {
	return s.root
}

// Save validates content as an allowed image, writes it atomically and
// returns "/uploads/<kind>/<uuid>.<ext>".
func (s *Store) Save(kind Kind, filename string, content []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	expectedMIME, ok := allowedExtensions[ext]
	if !ok {
		return "", models.NewValidationError("File type not allowed")
	}
	if len(content) == 0 {
		return "", models.NewValidationError("No selected file")
	}
	if int64(len(content)) > s.maxBytes {
		return "", s.tooLarge()
	}

	detected := http.DetectContentType(content)
	if detected != expectedMIME {
		return "", models.NewValidationError("Invalid image file")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(content)); err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	if kind == KindAvatar {
		resized, err := downscale(content, AvatarMaxDimension)
		if err != nil {
			return "", models.NewValidationError("Invalid image file")
		}
		content = resized
	}

	name := uuid.New().String() + "." + ext
	dir := filepath.Join(s.root, string(kind))
	if err := writeAtomically(dir, name, content); err != nil {
		return "", models.NewInternalError(err)
	}

	observability.UploadBytes.WithLabelValues(string(kind)).Observe(float64(len(content)))
	return path.Join(PublicPrefix, string(kind), name), nil
}

// Remove deletes the file behind a public URL. Unknown or foreign URLs are ignored.
func (s *Store) Remove(publicURL string) {
	p, ok := s.localPath(publicURL)
	if !ok {
		return
	}
	_ = os.Remove(p)
}

func (s *Store) localPath(publicURL string) (string, bool) {
	if !strings.HasPrefix(publicURL, PublicPrefix+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(path.Clean(publicURL), PublicPrefix+"/")
	parts := strings.Split(rel, "/")
	if len(parts) != 2 {
		return "", false
	}
	switch Kind(parts[0]) {
	case KindPost, KindItem, KindAvatar:
	default:
		return "", false
	}
	if parts[1] == "" || parts[1] == ".." || strings.HasPrefix(parts[1], ".") {
		return "", false
	}
	return filepath.Join(s.root, parts[0], parts[1]), true
}

func (s *Store) tooLarge() error {
	return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
}

// writeAtomically writes into a temp file in dir and renames it into place,
// so readers never see a partial upload.
func writeAtomically(dir, name string, content []byte) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		cleanup()
		return err
	}
	return nil
}

// downscale shrinks images larger than maxDim on either side and re-encodes
// them in their source format. Smaller images are returned untouched.
func downscale(content []byte, maxDim int) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return content, nil
	}

	scale := float64(maxDim) / float64(b.Dx())
	if hs := float64(maxDim) / float64(b.Dy()); hs < scale {
		scale = hs
	}
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	buf := bytes.NewBuffer(nil)
	switch format {
	case "png":
		err = png.Encode(buf, dst)
	case "gif":
		err = gif.Encode(buf, dst, nil)
	default:
		err = jpeg.Encode(buf, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
