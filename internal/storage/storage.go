// Package storage keeps uploaded files on the local filesystem.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"hiddenplaces/internal/domain"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

var blockedExts = map[string]bool{
	".exe": true, ".bat": true, ".sh": true, ".cmd": true, ".js": true, ".php": true, ".py": true,
}

// ErrBadPath is returned for paths escaping the storage root.
var ErrBadPath = errors.New("storage: invalid path")

// Local stores files below Root. Images larger than ImageMaxPx on their
// longest edge are scaled down when saved with reduce; thumbnails are
// ThumbnailPx on their longest edge.
type Local struct {
	Root        string
	ImageMaxPx  int
	ThumbnailPx int
}

// CheckExtension returns the lower-cased extension of name when it is
// acceptable for an image (image true) or a document.
func CheckExtension(name string, image bool) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", domain.ErrUnsupportedFile
	}
	if image {
		if !imageExts[ext] {
			return "", domain.ErrUnsupportedFile
		}
		return ext, nil
	}
	if blockedExts[ext] {
		return "", domain.ErrUnsupportedFile
	}
	return ext, nil
}

func IsImageName(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Save writes r to subfolder/<uuid><ext> and returns the relative path.
// Images are checked by content and, with reduce, scaled to ImageMaxPx.
func (s *Local) Save(subfolder string, r io.Reader, origName string, reduce bool) (string, error) {
	isImage := IsImageName(origName)
	ext, err := CheckExtension(origName, isImage)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if isImage {
		if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
			return "", domain.ErrUnsupportedFile
		}
		if reduce {
			data, err = s.reduce(data, ext, s.ImageMaxPx)
			if err != nil {
				return "", err
			}
		}
	}

	rel := path.Join(subfolder, uuid.NewString()+ext)
	if err := s.write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

// Thumbnail renders the thumbnail of the image stored at rel.
func (s *Local) Thumbnail(rel string) error {
	src, err := s.resolve(rel)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	thumb, err := s.reduce(data, strings.ToLower(filepath.Ext(rel)), s.ThumbnailPx)
	if err != nil {
		return err
	}
	return s.write(domain.ThumbnailPath(rel), thumb)
}

// Delete removes the file at rel and its thumbnail. Missing files are not
// an error.
func (s *Local) Delete(rel string) error {
	var errs []error
	for _, p := range []string{rel, domain.ThumbnailPath(rel)} {
		full, err := s.resolve(p)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Local) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// resolve maps a relative storage path to a filesystem path inside Root.
func (s *Local) resolve(rel string) (string, error) {
	if rel == "" || strings.Contains(rel, "\\") || path.IsAbs(rel) {
		return "", ErrBadPath
	}
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrBadPath
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

func (s *Local) write(rel string, data []byte) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store upload: %w", err)
	}
	_ = os.Chmod(full, 0o644)
	return nil
}

// reduce scales the encoded image so its longest edge is at most maxPx and
// encodes it again in the format given by ext. Smaller images are returned
// unchanged.
func (s *Local) reduce(data []byte, ext string, maxPx int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrUnsupportedFile
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPx <= 0 || (w <= maxPx && h <= maxPx) {
		return data, nil
	}

	nw, nh := maxPx, maxPx
	if w >= h {
		nh = max(1, h*maxPx/w)
	} else {
		nw = max(1, w*maxPx/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, dst)
	case ".gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
