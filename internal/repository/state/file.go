package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/logger"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStore persists every key into one JSON document on disk.
// Each change rewrites the document through a temporary file and a rename,
// so a crash leaves either the old or the new document, never half of one.
type FileStore struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// fileDocument is the on-disk layout. Blobs are base64 encoded by encoding/json.
type fileDocument struct {
	Entries map[string][]byte `json:"entries"`
}

// NewFileStore creates a store that reads/writes JSON at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Get reads the blob stored under key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	blob, ok := doc.Entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	return blob, nil
}

// Set stores blob under key and rewrites the document.
func (s *FileStore) Set(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.readOrEmpty(ctx)
	doc.Entries[key] = blob

	return s.write(doc)
}

// Remove deletes key and rewrites the document.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.readOrEmpty(ctx)
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}

	delete(doc.Entries, key)

	return s.write(doc)
}

// read loads the document. A missing file reads as ErrNotFound.
func (s *FileStore) read() (*fileDocument, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc fileDocument
	if err = json.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	if doc.Entries == nil {
		doc.Entries = make(map[string][]byte)
	}

	return &doc, nil
}

// readOrEmpty loads the document for a rewrite. A missing or corrupt file
// starts from an empty document.
func (s *FileStore) readOrEmpty(ctx context.Context) *fileDocument {
	doc, err := s.read()
	if err == nil {
		return doc
	}

	if !errors.Is(err, ErrNotFound) {
		logger.WarnKV(ctx, "Discarding unreadable state file", "path", s.path, "error", err)
	}

	return &fileDocument{Entries: make(map[string][]byte)}
}

// write replaces the document atomically.
func (s *FileStore) write(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	if err = os.Chmod(tmpName, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("chmod state file: %w", err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
