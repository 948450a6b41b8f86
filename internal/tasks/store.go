package tasks

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var manifestSchema = jsonschema.MustCompileString("vtm/schema.json", schemaJSON)

// Store abstracts manifest persistence so commands never touch the file
// directly and tests can substitute an in-memory implementation.
type Store interface {
	Load() (*Manifest, error)
	Save(*Manifest) error
}

// FileStore owns the on-disk manifest file. It is the only component
// allowed to read or write that path.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the manifest at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the manifest file path.
func (s *FileStore) Path() string {
	return s.path
}

// Exists reports whether the manifest file is present.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and validates the manifest. A file that is not valid JSON,
// fails schema checks, or contains duplicate task ids yields a
// CorruptManifestError; mutation on top of such a file would compound
// the corruption.
func (s *FileStore) Load() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s does not exist (run 'vtm init' first)", s.path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if err := validateManifestBytes(data); err != nil {
		return nil, &CorruptManifestError{Path: s.path, Reason: err.Error()}
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, &CorruptManifestError{Path: s.path, Reason: err.Error()}
	}

	return &manifest, nil
}

// Save recomputes derived fields and writes the manifest atomically:
// marshal, write to a temp file in the same directory, fsync, rename.
// Readers observe either the old document or the new one, never a
// partial write.
func (s *FileStore) Save(m *Manifest) error {
	m.RecomputeStats()
	m.DeriveBlocks()

	data, err := MarshalManifest(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	return atomicWrite(s.path, data)
}

// MarshalManifest produces the canonical on-disk encoding. Serialization
// is stable: the same manifest always yields the same bytes.
func MarshalManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// atomicWrite writes data to path via a temp file and rename. The temp
// file lives in the target's directory so the rename stays on one
// filesystem.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// validateManifestBytes runs schema validation plus the duplicate-id
// check the schema cannot express.
func validateManifestBytes(data []byte) error {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}

	if err := manifestSchema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("schema violation: %s", flattenSchemaError(ve))
		}
		return err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return err
	}

	seen := make(map[string]bool, len(manifest.Tasks))
	for _, t := range manifest.Tasks {
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id: %s", t.ID)
		}
		seen[t.ID] = true
	}

	return nil
}

// flattenSchemaError picks the deepest leaf cause, which names the
// offending field instead of the generic root message.
func flattenSchemaError(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}

// MemStore is an in-memory Store for tests. Save applies the same
// derived-field recomputation as FileStore.
type MemStore struct {
	manifest *Manifest
	// SaveErr, when set, is returned by Save to simulate write failures.
	SaveErr error
	Saves   int
}

// NewMemStore creates a MemStore seeded with m.
func NewMemStore(m *Manifest) *MemStore {
	return &MemStore{manifest: m}
}

// Load returns a deep copy so mutations are only visible after Save.
func (s *MemStore) Load() (*Manifest, error) {
	if s.manifest == nil {
		return nil, fmt.Errorf("manifest does not exist")
	}
	data, err := json.Marshal(s.manifest)
	if err != nil {
		return nil, err
	}
	var copy Manifest
	if err := json.Unmarshal(data, &copy); err != nil {
		return nil, err
	}
	return &copy, nil
}

// Save stores a deep copy of m with stats and blocks recomputed.
func (s *MemStore) Save(m *Manifest) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	m.RecomputeStats()
	m.DeriveBlocks()
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var copy Manifest
	if err := json.Unmarshal(data, &copy); err != nil {
		return err
	}
	s.manifest = &copy
	s.Saves++
	return nil
}
