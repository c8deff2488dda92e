// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const fileExt = ".gob.gz"

// ErrNotFound is returned when no artifact exists for a name.
var ErrNotFound = errors.New("artifact not found")

// Metadata contains information about a stored artifact.
type Metadata struct {
	// Name is the artifact key, see ArtifactName.
	Name string `json:"name"`

	// Model is the model type ("forecast" or "recommend").
	Model string `json:"model"`

	// DataVersion is the data version the model was trained on.
	DataVersion string `json:"data_version"`

	// Revision increases with every save under the same name.
	Revision int `json:"revision"`

	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// FeatureNames is the ordered feature list the model expects.
	FeatureNames []string `json:"feature_names,omitempty"`

	// Metrics holds training metrics or matrix statistics.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Checksum is the SHA-256 of the uncompressed state.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed state size.
	SizeBytes int64 `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// storedFile is the on-disk format for artifact files.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// ArtifactName returns the storage key for a model trained on a data version.
func ArtifactName(model, dataVersion string) string {
	return model + "_" + dataVersion
}

// Store manages artifact persistence.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest revision per artifact name
	revisions map[string]int
}

// NewStore creates a store at the given directory, indexing existing files.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for artifact storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:   baseDir,
		revisions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}
	return s, nil
}

// scan indexes artifact files in the base directory.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name, rev, ok := parseFilename(entry)
		if !ok {
			continue
		}
		if current, seen := s.revisions[name]; !seen || rev > current {
			s.revisions[name] = rev
		}
	}
	return nil
}

// parseFilename extracts the artifact name and revision from a file like
// "forecast_3f2a_v2.gob.gz".
func parseFilename(entry os.DirEntry) (string, int, bool) {
	if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
		return "", 0, false
	}
	base := strings.TrimSuffix(entry.Name(), fileExt)
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	var rev int
	if _, err := fmt.Sscanf(base[idx+2:], "%d", &rev); err != nil || rev < 1 {
		return "", 0, false
	}
	return base[:idx], rev, true
}

// Save encodes data as the next revision of name and returns the stored
// metadata.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, data interface{}, meta Metadata) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return Metadata{}, fmt.Errorf("encode artifact: %w", err)
	}
	raw := buf.Bytes()
	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return Metadata{}, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return Metadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta.Name = name
	meta.Revision = s.revisions[name] + 1
	meta.Checksum = hex.EncodeToString(hash[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	final := s.path(name, meta.Revision)
	tmp, err := os.CreateTemp(s.baseDir, ".artifact-*")
	if err != nil {
		return Metadata{}, fmt.Errorf("create artifact file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() //nolint:errcheck // no-op after a successful rename

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return Metadata{}, fmt.Errorf("write artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Metadata{}, fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return Metadata{}, fmt.Errorf("commit artifact file: %w", err)
	}

	s.revisions[name] = meta.Revision
	return meta, nil
}

// Load decodes a revision of name into target. Revision 0 loads the latest.
func (s *Store) Load(ctx context.Context, name string, revision int, target interface{}) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if revision == 0 {
		var ok bool
		revision, ok = s.revisions[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
	}

	sf, err := s.readFile(name, revision)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &sf.Metadata, nil
}

func (s *Store) readFile(name string, revision int) (*storedFile, error) {
	f, err := os.Open(s.path(name, revision)) //nolint:gosec // path is built from the store directory
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s revision %d: %w", name, revision, ErrNotFound)
		}
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}
	return &sf, nil
}

// LatestRevision returns the latest revision for an artifact name.
func (s *Store) LatestRevision(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rev, ok := s.revisions[name]
	return rev, ok
}

// List returns metadata for the latest revision of every artifact, ordered
// by save time.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Metadata, 0, len(s.revisions))
	for name, rev := range s.revisions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sf, err := s.readFile(name, rev)
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.Before(out[j].SavedAt) })
	return out, nil
}

// revisionsOf lists the revisions on disk for a name, newest first.
// Must be called with mu held.
func (s *Store) revisionsOf(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var revs []int
	for _, entry := range entries {
		n, rev, ok := parseFilename(entry)
		if ok && n == name {
			revs = append(revs, rev)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(revs)))
	return revs, nil
}

// Delete removes a specific revision.
func (s *Store) Delete(ctx context.Context, name string, revision int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name, revision)); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	if s.revisions[name] != revision {
		return nil
	}

	revs, err := s.revisionsOf(name)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		delete(s.revisions, name)
		return nil
	}
	s.revisions[name] = revs[0]
	return nil
}

// Prune removes old revisions of name, keeping the newest keep.
func (s *Store) Prune(ctx context.Context, name string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	revs, err := s.revisionsOf(name)
	if err != nil {
		return err
	}
	for i := keep; i < len(revs); i++ {
		_ = os.Remove(s.path(name, revs[i])) //nolint:errcheck // best-effort cleanup of old revisions
	}
	return nil
}

func (s *Store) path(name string, revision int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, revision, fileExt))
}
