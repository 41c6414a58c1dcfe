package upload

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/big"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/networkrad/internal/domain"
)

// URLPrefix is the public path prefix of stored photos; stored paths look like
// "uploads/<file>".
const URLPrefix = "uploads/"

// sniffLen is how many bytes mimetype needs to recognise common image formats
const sniffLen = 3072

// Store keeps profile photos on local disk
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewStore creates the upload directory if needed
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, domain.WrapFileSystem("create uploads dir", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory photos are written to
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the per-file size limit
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and stores an uploaded photo, returning its "uploads/..." path
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", domain.ErrPhotoTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", domain.WrapFileSystem("open upload", err)
	}
	defer f.Close()

	return s.SaveStream(f, fh.Filename, fh.Header.Get("Content-Type"))
}

// SaveStream stores a photo read from r. Both the declared content type and
// the sniffed content must be an image; SVG is refused since it can carry script.
func (s *Store) SaveStream(r io.Reader, filename, declaredType string) (string, error) {
	if declaredType != "" && !strings.HasPrefix(declaredType, "image/") {
		return "", domain.ErrPhotoInvalid
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", domain.WrapFileSystem("read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return "", domain.ErrPhotoInvalid
	}

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") || mtype.Is("image/svg+xml") {
		slog.Debug("rejected upload", "filename", filename, "declared", declaredType, "detected", mtype.String())
		return "", domain.ErrPhotoInvalid
	}

	name, err := s.newFilename(filename, mtype.Extension())
	if err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", domain.WrapFileSystem("create photo", err)
	}

	// Copy at most maxBytes+1 so oversize streams are detected
	body := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(out, io.LimitReader(body, s.maxBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return "", domain.WrapFileSystem("write photo", err)
	}
	if written > s.maxBytes {
		os.Remove(dst)
		return "", domain.ErrPhotoTooLarge
	}

	return URLPrefix + name, nil
}

// newFilename builds "<unix millis>-<random>.<ext>", keeping the client's
// extension when present and falling back to the sniffed one.
func (s *Store) newFilename(original, sniffedExt string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || len(ext) > 6 {
		ext = sniffedExt
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1e9))
	if err != nil {
		return "", fmt.Errorf("generate photo name: %w", err)
	}
	return fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), n.Int64(), ext), nil
}

// IsLocal reports whether a stored photo path refers to this store rather
// than a remote avatar URL
func IsLocal(relPath string) bool {
	return strings.HasPrefix(relPath, URLPrefix)
}

// Remove deletes a stored photo. Remote URLs, foreign paths and missing
// files are ignored.
func (s *Store) Remove(relPath string) error {
	if !IsLocal(relPath) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(relPath, URLPrefix))
	if name == "." || name == string(filepath.Separator) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapFileSystem("remove photo", err)
	}
	return nil
}

// Orphans lists stored photos older than minAge that no account references
func (s *Store) Orphans(referenced []string, minAge time.Duration) ([]string, error) {
	known := make(map[string]bool, len(referenced))
	for _, p := range referenced {
		if IsLocal(p) {
			known[filepath.Base(p)] = true
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.WrapFileSystem("list uploads", err)
	}

	cutoff := s.now().Add(-minAge)
	var orphans []string
	for _, entry := range entries {
		if entry.IsDir() || known[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		// Skip files from uploads that may not be committed to the database yet
		if info.ModTime().After(cutoff) {
			continue
		}
		orphans = append(orphans, URLPrefix+entry.Name())
	}
	return orphans, nil
}
