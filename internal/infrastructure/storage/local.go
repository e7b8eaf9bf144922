// Package storage persists uploaded statement files on the local
// filesystem, one directory per user.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"grana/internal/domain/ofximport"
)

// LocalFileStore stores files under root/<userID>/<uuid>_<name>.
type LocalFileStore struct {
	root string
}

// NewLocalFileStore creates the root directory if needed.
func NewLocalFileStore(root string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalFileStore{root: root}, nil
}

// Save writes the stream to disk and returns the stored name, size and
// SHA-256 content hash. The stored name is prefixed with a uuid so
// repeated uploads of files with the same name never collide.
func (s *LocalFileStore) Save(userID int64, originalName string, r io.Reader) (*ofximport.StoredFile, error) {
	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user upload directory: %w", err)
	}

	name := uuid.NewString() + "_" + sanitizeFilename(originalName)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &ofximport.StoredFile{
		Name: name,
		Size: size,
		Hash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open returns a reader over a previously stored file.
func (s *LocalFileStore) Open(userID int64, storedName string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.userDir(userID), filepath.Base(storedName)))
}

// Remove deletes a stored file.
func (s *LocalFileStore) Remove(userID int64, storedName string) error {
	return os.Remove(filepath.Join(s.userDir(userID), filepath.Base(storedName)))
}

func (s *LocalFileStore) userDir(userID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(userID, 10))
}

// sanitizeFilename keeps only characters that are safe in a filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '-' || c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
