package project

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/records"
)

// StoreKind names an assignment store backend.
type StoreKind string

const (
	StoreTSV    StoreKind = "tsv"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

func (k StoreKind) defaultFile() (string, error) {
	switch k {
	case StoreTSV:
		return "contig_metadata.tsv", nil
	case StoreSQLite:
		return "contig_metadata.db", nil
	case StoreMemory:
		return "", nil
	}
	return "", fmt.Errorf("unsupported store backend: %s", k)
}

// AssignmentStore persists the flat assignment records of one project.
// Save replaces the whole record set; Load returns it in saved order.
type AssignmentStore interface {
	// Name returns the backend name.
	Name() string

	// Init prepares the backend (creating files or tables).
	Init(ctx context.Context) error

	Load(ctx context.Context) ([]mag.AssignmentRecord, error)

	// Save replaces the stored records. A failed save leaves the previous
	// records in place.
	Save(ctx context.Context, recs []mag.AssignmentRecord) error

	Close() error
}

// NewStore constructs the backend for kind. path is ignored by the memory
// store.
func NewStore(rt *toolkit.Runtime, kind StoreKind, path string) (AssignmentStore, error) {
	switch kind {
	case "", StoreTSV:
		return NewTSVStore(rt, path), nil
	case StoreMemory:
		return NewMemoryStore(), nil
	case StoreSQLite:
		host, err := hostPath(rt, path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(host), nil
	}
	return nil, fmt.Errorf("unsupported store backend: %s", kind)
}

// hostPath maps a runtime path to the real filesystem path, accounting for a
// jailed runtime.
func hostPath(rt *toolkit.Runtime, path string) (string, error) {
	if !filepath.IsAbs(path) {
		wd, err := rt.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", path, err)
		}
		path = filepath.Join(wd, path)
	}
	path = filepath.Clean(path)
	if jail := strings.TrimSpace(rt.GetJail()); jail != "" {
		trimmed := strings.TrimPrefix(path, string(filepath.Separator))
		return filepath.Join(jail, trimmed), nil
	}
	return path, nil
}

// TSVStore keeps assignments in the canonical assignment TSV. It remembers
// the hash of its last write so a watcher can ignore its own saves.
type TSVStore struct {
	rt   *toolkit.Runtime
	path string

	mu      sync.Mutex
	written [sha256.Size]byte
	hasHash bool
}

// NewTSVStore returns a store writing to path through rt.
func NewTSVStore(rt *toolkit.Runtime, path string) *TSVStore {
	return &TSVStore{rt: rt, path: path}
}

func (s *TSVStore) Name() string { return string(StoreTSV) }

// Path returns the file location.
func (s *TSVStore) Path() string { return s.path }

func (s *TSVStore) Init(ctx context.Context) error {
	_ = ctx
	if s.path == "" {
		return fmt.Errorf("tsv store path is required")
	}
	if err := s.rt.Mkdir(filepath.Dir(s.path), 0o755, true); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}

func (s *TSVStore) Load(ctx context.Context) ([]mag.AssignmentRecord, error) {
	_ = ctx
	data, err := s.rt.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	s.remember(data)
	return records.ReadAssignments(s.path, bytes.NewReader(data))
}

func (s *TSVStore) Save(ctx context.Context, recs []mag.AssignmentRecord) error {
	_ = ctx
	data := records.EncodeAssignments(recs)
	if err := s.rt.AtomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	s.remember(data)
	return nil
}

func (s *TSVStore) Close() error { return nil }

func (s *TSVStore) remember(data []byte) {
	sum := sha256.Sum256(data)
	s.mu.Lock()
	s.written = sum
	s.hasHash = true
	s.mu.Unlock()
}

// Changed reports whether data differs from what the store last read or
// wrote.
func (s *TSVStore) Changed(data []byte) bool {
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hasHash || sum != s.written
}

// MemoryStore keeps assignments in memory. It is used for tests and for
// throwaway sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []mag.AssignmentRecord
	ok   bool
}

// NewMemoryStore returns an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name() string { return string(StoreMemory) }

func (s *MemoryStore) Init(context.Context) error { return nil }

func (s *MemoryStore) Load(context.Context) ([]mag.AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return nil, fmt.Errorf("read assignments: %w", os.ErrNotExist)
	}
	return slices.Clone(s.recs), nil
}

func (s *MemoryStore) Save(_ context.Context, recs []mag.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = slices.Clone(recs)
	s.ok = true
	return nil
}

func (s *MemoryStore) Close() error { return nil }
