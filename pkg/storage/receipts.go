package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReceiptStore saves uploaded payment receipts under a randomized name so
// client-supplied filenames never touch the filesystem.
type ReceiptStore struct {
	storage    *LocalStorage
	allowedExt map[string]struct{}
}

// NewReceiptStore builds a receipt store rooted at baseDir/receipts.
func NewReceiptStore(baseDir string, allowedExtensions []string) (*ReceiptStore, error) {
	storage, err := NewLocalStorage(filepath.Join(baseDir, "receipts"))
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &ReceiptStore{storage: storage, allowedExt: allowed}, nil
}

// Save stores an uploaded receipt and returns its relative path. The
// extension is validated case-insensitively against the whitelist.
func (s *ReceiptStore) Save(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := s.allowedExt[ext]; !ok {
		return "", fmt.Errorf("receipt extension %q not allowed", ext)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close() //nolint:errcheck

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	name := uuid.NewString() + ext
	if _, err := s.storage.Save(name, data); err != nil {
		return "", err
	}
	return filepath.Join("receipts", name), nil
}

// Delete removes a stored receipt by its relative path.
func (s *ReceiptStore) Delete(relPath string) error {
	return s.storage.Delete(filepath.Base(relPath))
}
